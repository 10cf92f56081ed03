package models

// Role values stored in bookr.role.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User maps a row of the bookr table.
type User struct {
	ID       uint   `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	Username string `gorm:"column:username;type:varchar(100)" json:"username"`
	Email    string `gorm:"column:email;type:varchar(100)" json:"email"`
	Location string `gorm:"column:location;type:varchar(100)" json:"location"`
	Phone    string `gorm:"column:phone;type:varchar(15)" json:"phone"`
	Password string `gorm:"column:password;type:varchar(255)" json:"-"` // Don't expose password hash
	Role     string `gorm:"column:role;type:varchar(20);default:user" json:"role"`
}

func (User) TableName() string { return "bookr" }
