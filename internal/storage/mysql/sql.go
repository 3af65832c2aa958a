package mysql

// The raw layer keeps each ingested record as one JSON payload so the
// loosely-typed source schema survives round-trips untouched. The clean
// layer has fixed, typed columns. Both layers are replace-written: the
// normalization lifecycle is whole-table recompute, never incremental.

const insertRawPlacesPrefix = `INSERT INTO raw_restaurants (data_id, payload) VALUES `

const insertRawReviewsPrefix = `INSERT INTO raw_reviews (place_data_id, payload) VALUES `

const insertCleanPlacesPrefix = `INSERT INTO clean_restaurants
  (place_id, data_id, place_title, rating, place_reviews_count, cuisine, price_level,
   address, latitude, longitude, dine_in, takeout, delivery, has_reserve_table,
   has_online_order, convenience_score)
VALUES `

const insertCleanReviewsPrefix = `INSERT INTO clean_reviews
  (place_data_id, place_title, review_rating, review_text, reviewer_name, review_datetime)
VALUES `

const selectRawPlacesSQL = `SELECT payload FROM raw_restaurants`

const selectRawReviewsSQL = `SELECT payload FROM raw_reviews`

const cleanPlaceColumns = `
  place_id, data_id, place_title, rating, place_reviews_count, cuisine, price_level,
  address, latitude, longitude, dine_in, takeout, delivery, has_reserve_table,
  has_online_order, convenience_score`

const getPlaceSQL = `SELECT` + cleanPlaceColumns + `
FROM clean_restaurants
WHERE place_id = ?`

// Reviews reference the provider's data_id namespace, not place_id;
// the place row bridges the two.
const listReviewsSQL = `
SELECT r.place_data_id, r.place_title, r.review_rating, r.review_text,
       r.reviewer_name, r.review_datetime
FROM clean_reviews r
JOIN clean_restaurants p ON r.place_data_id = p.data_id
WHERE p.place_id = ?
ORDER BY r.review_datetime DESC, r.id DESC
LIMIT ?`
