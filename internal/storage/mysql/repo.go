package mysql

import (
	"context"
	"database/sql"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"mboa_homes/internal/domain"
)

func valStr(p *string) any {
	if p == nil {
		return nil
	}
	return *p
}
func valInt64(p *int64) any {
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
func valTime(p *time.Time) any {
	if p == nil {
		return nil
	}
	return *p
}

type Repo struct{ db *sql.DB }

func New(db *sql.DB) *Repo { return &Repo{db: db} }

func (r *Repo) UpsertListing(ctx context.Context, l domain.Listing) error {
	amen, _ := json.Marshal(l.Amenities)
	imgs, _ := json.Marshal(l.Images)
	_, err := r.db.ExecContext(ctx, upsertListingSQL,
		l.ID,
		l.Title,
		l.City,
		valStr(l.Neighborhood),
		l.Price,
		l.PriceUnit,
		l.Bedrooms,
		l.Bathrooms,
		l.Area,
		l.PropertyType,
		l.ListingType,
		string(amen),
		string(imgs),
		l.IsVerified,
		l.IsPublished,
		l.IsAvailable,
		valTime(l.AvailableFrom),
	)
	return err
}

func (r *Repo) UpsertProfile(ctx context.Context, p domain.UserProfile) error {
	ptypes, _ := json.Marshal(p.PreferredPropertyTypes)
	ltypes, _ := json.Marshal(p.PreferredListingTypes)
	hoods, _ := json.Marshal(p.PreferredNeighborhoods)
	amens, _ := json.Marshal(p.PreferredAmenities)
	_, err := r.db.ExecContext(ctx, upsertProfileSQL,
		p.UserID,
		valStr(p.City),
		valF64(p.BudgetMin),
		valF64(p.BudgetMax),
		string(ptypes),
		string(ltypes),
		string(hoods),
		string(amens),
		p.MoveInTimeline,
	)
	return err
}

func (r *Repo) InsertViewEvent(ctx context.Context, v domain.ViewEvent) error {
	var viewedAt any
	if !v.ViewedAt.IsZero() {
		viewedAt = v.ViewedAt
	}
	_, err := r.db.ExecContext(ctx, insertViewEventSQL,
		v.PropertyID, valInt64(v.UserID), v.Duration, viewedAt)
	return err
}

func (r *Repo) IncrementViewCount(ctx context.Context, propertyID int64) error {
	_, err := r.db.ExecContext(ctx, incrementViewCountSQL, propertyID)
	return err
}

func (r *Repo) AddFavorite(ctx context.Context, userID, propertyID int64) error {
	_, err := r.db.ExecContext(ctx, addFavoriteSQL, userID, propertyID)
	return err
}

func (r *Repo) RemoveFavorite(ctx context.Context, userID, propertyID int64) error {
	_, err := r.db.ExecContext(ctx, removeFavoriteSQL, userID, propertyID)
	return err
}

func (r *Repo) LogMiss(ctx context.Context, id int64, status int, reason string) error {
	_, err := r.db.ExecContext(ctx, insertMissSQL, id, status, reason)
	return err
}

func scanListing(scan func(...any) error) (domain.Listing, error) {
	var l domain.Listing
	var neighborhood sql.NullString
	var amenitiesJSON, imagesJSON []byte
	var availableFrom sql.NullTime

	if err := scan(
		&l.ID,
		&l.Title,
		&l.City,
		&neighborhood,
		&l.Price,
		&l.PriceUnit,
		&l.Bedrooms,
		&l.Bathrooms,
		&l.Area,
		&l.PropertyType,
		&l.ListingType,
		&amenitiesJSON,
		&imagesJSON,
		&l.IsVerified,
		&l.IsPublished,
		&l.IsAvailable,
		&l.ViewCount,
		&l.CreatedAt,
		&availableFrom,
	); err != nil {
		return domain.Listing{}, err
	}

	if neighborhood.Valid && strings.TrimSpace(neighborhood.String) != "" {
		n := neighborhood.String
		l.Neighborhood = &n
	}
	if availableFrom.Valid {
		t := availableFrom.Time
		l.AvailableFrom = &t
	}
	_ = json.Unmarshal(amenitiesJSON, &l.Amenities)
	_ = json.Unmarshal(imagesJSON, &l.Images)
	return l, nil
}

func (r *Repo) GetListing(ctx context.Context, id int64) (domain.Listing, error) {
	row := r.db.QueryRowContext(ctx, getListingSQL, id)
	l, err := scanListing(row.Scan)
	if err == sql.ErrNoRows {
		return domain.Listing{}, domain.ErrNotFound
	}
	return l, err
}

func (r *Repo) SearchListings(ctx context.Context, q domain.ListingsQuery) (domain.ListingsPage, error) {
	var (
		where = []string{"is_published = 1"}
		args  []any
	)
	if q.City != nil {
		where = append(where, "city = ?")
		args = append(args, *q.City)
	}
	if q.PropertyType != nil {
		where = append(where, "property_type = ?")
		args = append(args, *q.PropertyType)
	}
	if q.ListingType != nil {
		where = append(where, "listing_type = ?")
		args = append(args, *q.ListingType)
	}
	if q.MinPrice != nil {
		where = append(where, "price >= ?")
		args = append(args, *q.MinPrice)
	}
	if q.MaxPrice != nil {
		where = append(where, "price <= ?")
		args = append(args, *q.MaxPrice)
	}
	if q.Cursor != nil {
		at, id, err := decodeCursor(*q.Cursor)
		if err != nil {
			return domain.ListingsPage{}, err
		}
		where = append(where, "(created_at < ? OR (created_at = ? AND id < ?))")
		args = append(args, at, at, id)
	}
	limit := q.Limit
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	args = append(args, limit)

	rows, err := r.db.QueryContext(ctx,
		"SELECT"+listingColumns+"\nFROM listings\nWHERE "+strings.Join(where, " AND ")+
			"\nORDER BY created_at DESC, id DESC\nLIMIT ?", args...)
	if err != nil {
		return domain.ListingsPage{}, err
	}
	defer rows.Close()

	var out []domain.Listing
	for rows.Next() {
		l, err := scanListing(rows.Scan)
		if err != nil {
			return domain.ListingsPage{}, err
		}
		out = append(out, l)
	}
	if err := rows.Err(); err != nil {
		return domain.ListingsPage{}, err
	}

	page := domain.ListingsPage{Items: out}
	if len(out) == limit {
		last := out[len(out)-1]
		c := encodeCursor(last.CreatedAt, last.ID)
		page.NextCursor = &c
	}
	return page, nil
}

// Keyset cursor over (created_at, id), opaque to callers.
func encodeCursor(at time.Time, id int64) string {
	raw := fmt.Sprintf("%d:%d", at.UTC().UnixNano(), id)
	return base64.RawURLEncoding.EncodeToString([]byte(raw))
}

func decodeCursor(s string) (time.Time, int64, error) {
	raw, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		return time.Time{}, 0, domain.ErrInvalidCursor
	}
	parts := strings.SplitN(string(raw), ":", 2)
	if len(parts) != 2 {
		return time.Time{}, 0, domain.ErrInvalidCursor
	}
	ns, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return time.Time{}, 0, domain.ErrInvalidCursor
	}
	id, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return time.Time{}, 0, domain.ErrInvalidCursor
	}
	return time.Unix(0, ns).UTC(), id, nil
}

func (r *Repo) ListCandidates(ctx context.Context, limit int) ([]domain.Listing, error) {
	rows, err := r.db.QueryContext(ctx, listCandidatesSQL, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Listing
	for rows.Next() {
		l, err := scanListing(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func (r *Repo) ListListingsByIDs(ctx context.Context, ids []int64) ([]domain.Listing, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	placeholders := make([]string, len(ids))
	args := make([]any, len(ids))
	for i, id := range ids {
		placeholders[i] = "?"
		args[i] = id
	}
	rows, err := r.db.QueryContext(ctx,
		"SELECT"+listingColumns+"\nFROM listings\nWHERE id IN ("+strings.Join(placeholders, ",")+")",
		args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Listing
	for rows.Next() {
		l, err := scanListing(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func (r *Repo) GetProfile(ctx context.Context, userID int64) (domain.UserProfile, error) {
	row := r.db.QueryRowContext(ctx, getProfileSQL, userID)

	var p domain.UserProfile
	var city sql.NullString
	var budgetMin, budgetMax sql.NullFloat64
	var ptypes, ltypes, hoods, amens []byte
	var timeline sql.NullString

	if err := row.Scan(
		&p.UserID,
		&city,
		&budgetMin, &budgetMax,
		&ptypes, &ltypes, &hoods, &amens,
		&timeline,
	); err != nil {
		if err == sql.ErrNoRows {
			return domain.UserProfile{}, domain.ErrNotFound
		}
		return domain.UserProfile{}, err
	}

	if city.Valid {
		c := city.String
		p.City = &c
	}
	if budgetMin.Valid {
		v := budgetMin.Float64
		p.BudgetMin = &v
	}
	if budgetMax.Valid {
		v := budgetMax.Float64
		p.BudgetMax = &v
	}
	_ = json.Unmarshal(ptypes, &p.PreferredPropertyTypes)
	_ = json.Unmarshal(ltypes, &p.PreferredListingTypes)
	_ = json.Unmarshal(hoods, &p.PreferredNeighborhoods)
	_ = json.Unmarshal(amens, &p.PreferredAmenities)
	if timeline.Valid {
		p.MoveInTimeline = timeline.String
	}
	return p, nil
}

func (r *Repo) ListFavoriteIDs(ctx context.Context, userID int64) ([]int64, error) {
	rows, err := r.db.QueryContext(ctx, listFavoriteIDsSQL, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

func (r *Repo) ListViewEvents(ctx context.Context, userID int64, limit int) ([]domain.ViewEvent, error) {
	rows, err := r.db.QueryContext(ctx, listViewEventsSQL, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.ViewEvent
	for rows.Next() {
		var v domain.ViewEvent
		var uid sql.NullInt64
		if err := rows.Scan(&v.PropertyID, &uid, &v.Duration, &v.ViewedAt); err != nil {
			return nil, err
		}
		if uid.Valid {
			u := uid.Int64
			v.UserID = &u
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// ListSimilarUserIDs finds users sharing at least one favorite with the
// given set, most overlapping first. First hop of the co-favorites walk.
func (r *Repo) ListSimilarUserIDs(ctx context.Context, propertyIDs []int64, excludeUserID int64, limit int) ([]int64, error) {
	if len(propertyIDs) == 0 {
		return nil, nil
	}
	placeholders := make([]string, len(propertyIDs))
	args := make([]any, 0, len(propertyIDs)+2)
	for i, id := range propertyIDs {
		placeholders[i] = "?"
		args = append(args, id)
	}
	args = append(args, excludeUserID, limit)

	rows, err := r.db.QueryContext(ctx,
		`SELECT user_id
FROM favorites
WHERE property_id IN (`+strings.Join(placeholders, ",")+`) AND user_id != ?
GROUP BY user_id
ORDER BY COUNT(*) DESC, user_id
LIMIT ?`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

// ListFavoritesOfUsers returns all favorite edges of the given users.
// Second hop of the co-favorites walk.
func (r *Repo) ListFavoritesOfUsers(ctx context.Context, userIDs []int64) ([]domain.FavoriteEdge, error) {
	if len(userIDs) == 0 {
		return nil, nil
	}
	placeholders := make([]string, len(userIDs))
	args := make([]any, len(userIDs))
	for i, id := range userIDs {
		placeholders[i] = "?"
		args[i] = id
	}
	rows, err := r.db.QueryContext(ctx,
		"SELECT user_id, property_id FROM favorites WHERE user_id IN ("+strings.Join(placeholders, ",")+")",
		args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.FavoriteEdge
	for rows.Next() {
		var e domain.FavoriteEdge
		if err := rows.Scan(&e.UserID, &e.PropertyID); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
