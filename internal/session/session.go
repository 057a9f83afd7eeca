package session

import (
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// UserAccount is a row in the credential store. Accounts are provisioned by
// an administrator; the session manager only ever reads them.
type UserAccount struct {
	ID              int64  `json:"id" gorm:"primaryKey"`
	Username        string `json:"user_name" gorm:"column:user_name;uniqueIndex;not null"`
	Password        string `json:"-" gorm:"column:password;not null"`
	Role            string `json:"role" gorm:"column:role"`
	SalesPersonName string `json:"sales_person_name" gorm:"column:sales_person_name"`
	// Access is either the literal "all" or a comma-separated tab list.
	Access    string    `json:"access" gorm:"column:access"`
	CreatedAt time.Time `json:"created_at" gorm:"column:created_at"`
	UpdatedAt time.Time `json:"updated_at" gorm:"column:updated_at"`
}

func (UserAccount) TableName() string {
	return "users"
}

// IsAdmin reports whether the account role is admin, case-insensitively.
func (u *UserAccount) IsAdmin() bool {
	return strings.EqualFold(u.Role, RoleAdmin)
}

// VerifyPassword checks a candidate password against the stored credential.
// Legacy rows store the password verbatim and are compared exactly; rows
// written by the seeder carry a bcrypt hash and are verified with bcrypt.
func (u *UserAccount) VerifyPassword(candidate string) bool {
	if strings.HasPrefix(u.Password, "$2a$") || strings.HasPrefix(u.Password, "$2b$") {
		return bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(candidate)) == nil
	}
	return u.Password == candidate
}

// SessionRecord is one row per login event in the session log store.
// Rows are created on login and mutated on logout and on the
// request/grant/reject workflow; they are never deleted.
type SessionRecord struct {
	ID        int64     `json:"id" gorm:"primaryKey"`
	Username  string    `json:"user_name" gorm:"column:user_name;index;not null"`
	LoginDate string    `json:"login_date" gorm:"column:login_date;index;not null"`
	LoginTime time.Time `json:"login_time" gorm:"column:login_time;not null"`
	// LogoutTime is nil while the session is active.
	LogoutTime      *time.Time `json:"logout_time,omitempty" gorm:"column:logout_time"`
	AccessRequested bool       `json:"access_requested" gorm:"column:access_requested;default:false"`
	AccessGranted   bool       `json:"access_granted" gorm:"column:access_granted;default:false"`
	RequestTime     *time.Time `json:"request_time,omitempty" gorm:"column:request_time"`
	GrantTime       *time.Time `json:"grant_time,omitempty" gorm:"column:grant_time"`
}

func (SessionRecord) TableName() string {
	return "login_logs"
}

func (r *SessionRecord) IsOpen() bool {
	return r.LogoutTime == nil
}

// SessionUser is the projection of a UserAccount carried by an
// authenticated session and serialized into the session token.
type SessionUser struct {
	Username        string    `json:"user_name"`
	Role            string    `json:"role"`
	SalesPersonName string    `json:"sales_person_name"`
	Tabs            []string  `json:"tabs"`
	LoginTime       time.Time `json:"login_time"`
}

func (u SessionUser) IsAdmin() bool {
	return strings.EqualFold(u.Role, RoleAdmin)
}

func (u SessionUser) HasTab(tab string) bool {
	for _, t := range u.Tabs {
		if t == tab {
			return true
		}
	}
	return false
}

const RoleAdmin = "admin"

// DefaultTabs is the full tab list that the literal access value "all"
// expands to. AdminTab is appended only for admin accounts.
var DefaultTabs = []string{"Dashboard", "Tracker", "Dealer Form", "Reports", "History", "Attendance"}

const AdminTab = "Admin Logs"

// ExpandTabs resolves an account's access configuration into the permitted
// tab list. "all" expands to the fixed full list; anything else is parsed as
// a comma-separated, trimmed, non-empty list.
func ExpandTabs(access, role string) []string {
	if strings.EqualFold(strings.TrimSpace(access), "all") {
		tabs := make([]string, len(DefaultTabs))
		copy(tabs, DefaultTabs)
		if strings.EqualFold(role, RoleAdmin) {
			tabs = append(tabs, AdminTab)
		}
		return tabs
	}

	parts := strings.Split(access, ",")
	tabs := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			tabs = append(tabs, p)
		}
	}
	return tabs
}

// DayOf formats a timestamp as the calendar-day partition key used by the
// session log store.
func DayOf(t time.Time) string {
	return t.Format("2006-01-02")
}
