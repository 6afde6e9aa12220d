package mysql

const upsertListingSQL = `
INSERT INTO listings
  (id, title, city, neighborhood, price, price_unit, bedrooms, bathrooms, area,
   property_type, listing_type, amenities, images, is_verified, is_published,
   is_available, available_from)
VALUES
  (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON DUPLICATE KEY UPDATE
  title          = VALUES(title),
  city           = VALUES(city),
  neighborhood   = VALUES(neighborhood),
  price          = VALUES(price),
  price_unit     = VALUES(price_unit),
  bedrooms       = VALUES(bedrooms),
  bathrooms      = VALUES(bathrooms),
  area           = VALUES(area),
  property_type  = VALUES(property_type),
  listing_type   = VALUES(listing_type),
  amenities      = VALUES(amenities),
  images         = VALUES(images),
  is_verified    = VALUES(is_verified),
  is_published   = VALUES(is_published),
  is_available   = VALUES(is_available),
  available_from = VALUES(available_from),
  updated_at     = CURRENT_TIMESTAMP
`

const upsertProfileSQL = `
INSERT INTO user_profiles
  (user_id, city, budget_min, budget_max, preferred_property_types,
   preferred_listing_types, preferred_neighborhoods, preferred_amenities,
   move_in_timeline)
VALUES
  (?, ?, ?, ?, ?, ?, ?, ?, ?)
ON DUPLICATE KEY UPDATE
  city                     = VALUES(city),
  budget_min               = VALUES(budget_min),
  budget_max               = VALUES(budget_max),
  preferred_property_types = VALUES(preferred_property_types),
  preferred_listing_types  = VALUES(preferred_listing_types),
  preferred_neighborhoods  = VALUES(preferred_neighborhoods),
  preferred_amenities      = VALUES(preferred_amenities),
  move_in_timeline         = VALUES(move_in_timeline)
`

const insertViewEventSQL = `
INSERT INTO view_events (property_id, user_id, view_duration_seconds, viewed_at)
VALUES (?, ?, ?, COALESCE(?, CURRENT_TIMESTAMP))
`

const incrementViewCountSQL = `
UPDATE listings SET view_count = view_count + 1 WHERE id = ?
`

const addFavoriteSQL = `
INSERT IGNORE INTO favorites (user_id, property_id) VALUES (?, ?)
`

const removeFavoriteSQL = `
DELETE FROM favorites WHERE user_id = ? AND property_id = ?
`

const insertMissSQL = `
INSERT INTO ingest_misses (id, http_status, reason)
VALUES (?, ?, ?)
ON DUPLICATE KEY UPDATE seen_at = CURRENT_TIMESTAMP
`

// -----------------------------------------------------------------------------
// READ QUERIES
// -----------------------------------------------------------------------------

const listingColumns = `
  id, title, city, neighborhood, price, price_unit, bedrooms, bathrooms, area,
  property_type, listing_type, amenities, images, is_verified, is_published,
  is_available, view_count, created_at, available_from`

const getListingSQL = `
SELECT` + listingColumns + `
FROM listings
WHERE id = ?
`

// Candidate pool for scoring: published and available, newest first.
const listCandidatesSQL = `
SELECT` + listingColumns + `
FROM listings
WHERE is_published = 1 AND is_available = 1
ORDER BY created_at DESC, id DESC
LIMIT ?
`

const getProfileSQL = `
SELECT user_id, city, budget_min, budget_max, preferred_property_types,
       preferred_listing_types, preferred_neighborhoods, preferred_amenities,
       move_in_timeline
FROM user_profiles
WHERE user_id = ?
`

const listFavoriteIDsSQL = `
SELECT property_id FROM favorites WHERE user_id = ? ORDER BY created_at DESC
`

const listViewEventsSQL = `
SELECT property_id, user_id, view_duration_seconds, viewed_at
FROM view_events
WHERE user_id = ?
ORDER BY viewed_at DESC, id DESC
LIMIT ?
`
