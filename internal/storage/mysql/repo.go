package mysql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/go-sql-driver/mysql"

	"resto_scout/internal/domain"
)

func valStr(p *string) any {
	if p == nil {
		return nil
	}
	return *p
}
func valF64(p *float64) any {
	if p == nil {
		return nil
	}
	return *p
}
func b01(b bool) int {
	if b {
		return 1
	}
	return 0
}

type Repo struct{ db *sql.DB }

func New(db *sql.DB) *Repo { return &Repo{db: db} }

// tableMissing maps MySQL error 1146 (table doesn't exist) onto the
// domain sentinel so callers can tell "never ingested" from "zero rows".
func tableMissing(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == 1146
}

// replaceInto clears the table and bulk-inserts rows in one transaction,
// so readers never observe a half-written table.
func (r *Repo) replaceInto(ctx context.Context, table, insertPrefix string, placeholders []string, args []any) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
		return fmt.Errorf("clear %s: %w", table, err)
	}
	if len(placeholders) > 0 {
		stmt := insertPrefix + strings.Join(placeholders, ",")
		if _, err := tx.ExecContext(ctx, stmt, args...); err != nil {
			return fmt.Errorf("fill %s: %w", table, err)
		}
	}
	return tx.Commit()
}

// ---- raw layer ----

func (r *Repo) ReplaceRawPlaces(ctx context.Context, rows []domain.RawRow) error {
	values := make([]string, 0, len(rows))
	args := make([]any, 0, len(rows)*2)
	for _, row := range rows {
		payload, err := json.Marshal(row)
		if err != nil {
			return fmt.Errorf("marshal raw place: %w", err)
		}
		dataID, _ := row["data_id"].(string)
		values = append(values, "(?,?)")
		args = append(args, dataID, string(payload))
	}
	return r.replaceInto(ctx, "raw_restaurants", insertRawPlacesPrefix, values, args)
}

func (r *Repo) ReplaceRawReviews(ctx context.Context, rows []domain.RawRow) error {
	values := make([]string, 0, len(rows))
	args := make([]any, 0, len(rows)*2)
	for _, row := range rows {
		payload, err := json.Marshal(row)
		if err != nil {
			return fmt.Errorf("marshal raw review: %w", err)
		}
		placeID, _ := row["place_data_id"].(string)
		values = append(values, "(?,?)")
		args = append(args, placeID, string(payload))
	}
	return r.replaceInto(ctx, "raw_reviews", insertRawReviewsPrefix, values, args)
}

func (r *Repo) LoadRawPlaces(ctx context.Context) ([]domain.RawRow, error) {
	return r.loadRaw(ctx, selectRawPlacesSQL)
}

func (r *Repo) LoadRawReviews(ctx context.Context) ([]domain.RawRow, error) {
	return r.loadRaw(ctx, selectRawReviewsSQL)
}

func (r *Repo) loadRaw(ctx context.Context, query string) ([]domain.RawRow, error) {
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		if tableMissing(err) {
			return nil, domain.ErrTableMissing
		}
		return nil, err
	}
	defer rows.Close()

	var out []domain.RawRow
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, err
		}
		var row domain.RawRow
		if err := json.Unmarshal(payload, &row); err != nil {
			return nil, fmt.Errorf("raw payload: %w", err)
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// ---- clean layer ----

func (r *Repo) ReplaceCleanPlaces(ctx context.Context, rows []domain.CleanPlace) error {
	values := make([]string, 0, len(rows))
	args := make([]any, 0, len(rows)*16)
	for _, p := range rows {
		values = append(values, "(?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)")
		args = append(args,
			p.PlaceID,
			p.DataID,
			p.PlaceTitle,
			valF64(p.Rating),
			p.ReviewsCount,
			p.Cuisine,
			valF64(p.PriceLevel),
			valStr(p.Address),
			p.Latitude,
			p.Longitude,
			b01(p.DineIn),
			b01(p.Takeout),
			b01(p.Delivery),
			b01(p.HasReserveTable),
			b01(p.HasOnlineOrder),
			p.ConvenienceScore,
		)
	}
	return r.replaceInto(ctx, "clean_restaurants", insertCleanPlacesPrefix, values, args)
}

func (r *Repo) ReplaceCleanReviews(ctx context.Context, rows []domain.CleanReview) error {
	values := make([]string, 0, len(rows))
	args := make([]any, 0, len(rows)*6)
	for _, rv := range rows {
		values = append(values, "(?,?,?,?,?,?)")
		var ts any
		if rv.ReviewDatetime != nil {
			ts = *rv.ReviewDatetime
		}
		args = append(args,
			valStr(rv.PlaceDataID),
			valStr(rv.PlaceTitle),
			valF64(rv.ReviewRating),
			valStr(rv.ReviewText),
			valStr(rv.ReviewerName),
			ts,
		)
	}
	return r.replaceInto(ctx, "clean_reviews", insertCleanReviewsPrefix, values, args)
}

// ---- read paths ----

func (r *Repo) GetPlace(ctx context.Context, id string) (domain.CleanPlace, error) {
	row := r.db.QueryRowContext(ctx, getPlaceSQL, id)
	p, err := scanPlace(row.Scan)
	if err == sql.ErrNoRows {
		return domain.CleanPlace{}, domain.ErrNotFound
	}
	return p, err
}

func (r *Repo) ListPlaces(ctx context.Context, q domain.PlacesQuery) ([]domain.CleanPlace, error) {
	query := `SELECT` + cleanPlaceColumns + ` FROM clean_restaurants WHERE 1=1`
	var args []any
	if q.Cuisine != nil {
		query += " AND cuisine = ?"
		args = append(args, *q.Cuisine)
	}
	if q.MinScore != nil {
		query += " AND convenience_score >= ?"
		args = append(args, *q.MinScore)
	}
	limit := q.Limit
	if limit <= 0 {
		limit = 50
	}
	query += " ORDER BY place_id LIMIT ?"
	args = append(args, limit)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.CleanPlace
	for rows.Next() {
		p, err := scanPlace(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *Repo) ListReviews(ctx context.Context, placeID string, limit int) ([]domain.CleanReview, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.QueryContext(ctx, listReviewsSQL, placeID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.CleanReview
	for rows.Next() {
		var rv domain.CleanReview
		var (
			pid, title, text, name sql.NullString
			rating                 sql.NullFloat64
			ts                     sql.NullTime
		)
		if err := rows.Scan(&pid, &title, &rating, &text, &name, &ts); err != nil {
			return nil, err
		}
		if pid.Valid {
			s := pid.String
			rv.PlaceDataID = &s
		}
		if title.Valid {
			s := title.String
			rv.PlaceTitle = &s
		}
		if rating.Valid {
			f := rating.Float64
			rv.ReviewRating = &f
		}
		if text.Valid {
			s := text.String
			rv.ReviewText = &s
		}
		if name.Valid {
			s := name.String
			rv.ReviewerName = &s
		}
		if ts.Valid {
			t := ts.Time
			rv.ReviewDatetime = &t
		}
		out = append(out, rv)
	}
	return out, rows.Err()
}

func scanPlace(scan func(dest ...any) error) (domain.CleanPlace, error) {
	var p domain.CleanPlace
	var (
		rating, priceLevel              sql.NullFloat64
		address                         sql.NullString
		dine, take, del, reserve, order int
	)
	if err := scan(
		&p.PlaceID,
		&p.DataID,
		&p.PlaceTitle,
		&rating,
		&p.ReviewsCount,
		&p.Cuisine,
		&priceLevel,
		&address,
		&p.Latitude,
		&p.Longitude,
		&dine, &take, &del, &reserve, &order,
		&p.ConvenienceScore,
	); err != nil {
		return domain.CleanPlace{}, err
	}
	if rating.Valid {
		f := rating.Float64
		p.Rating = &f
	}
	if priceLevel.Valid {
		f := priceLevel.Float64
		p.PriceLevel = &f
	}
	if address.Valid {
		s := address.String
		p.Address = &s
	}
	p.DineIn = dine != 0
	p.Takeout = take != 0
	p.Delivery = del != 0
	p.HasReserveTable = reserve != 0
	p.HasOnlineOrder = order != 0
	return p, nil
}
