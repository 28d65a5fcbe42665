package database

import "time"

// Session is the per-user state kept between updates: the last thing the
// user solved. Rows past ExpiresAt are treated as absent.
type Session struct {
	UserID         int64     `db:"user_id"`
	ChatID         int64     `db:"chat_id"`
	LastExpression string    `db:"last_expression"`
	LastCategory   string    `db:"last_category"`
	LastResult     string    `db:"last_result"`
	UpdatedAt      time.Time `db:"updated_at"`
	ExpiresAt      time.Time `db:"expires_at"`
}

// Solution is one entry of a user's solve history.
type Solution struct {
	ID         string    `db:"id"`
	UserID     int64     `db:"user_id"`
	ChatID     int64     `db:"chat_id"`
	Expression string    `db:"expression"`
	Category   string    `db:"category"`
	Success    bool      `db:"success"`
	Result     string    `db:"result"`
	Error      string    `db:"error"`
	CreatedAt  time.Time `db:"created_at"`
}
