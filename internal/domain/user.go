package domain

// DefaultUsername is the account consulted when a login names no user.
const DefaultUsername = "admin"

// User is a dashboard credential used by the password-table login path.
type User struct {
	ID           int64
	Username     string
	PasswordHash string
}
