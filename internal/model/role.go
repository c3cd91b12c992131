package model

type Role struct {
	ID          uint        `gorm:"primaryKey" json:"id"`
	Code        string      `gorm:"type:varchar(50);uniqueIndex;not null" json:"code"`
	Name        string      `gorm:"type:varchar(100)" json:"name"`
	Description string      `gorm:"type:text" json:"description"`
	Privileges  []Privilege `gorm:"many2many:role_privileges;" json:"privileges,omitempty"`
}

const (
	RoleAdmin    = "ADMIN"
	RoleSecurity = "SECURITY"
)

var DefaultRoles = []Role{
	{
		Code:        RoleAdmin,
		Name:        "Store Administrator",
		Description: "Inventory, offers, analytics and staff",
	},
	{
		Code:        RoleSecurity,
		Name:        "Security Agent",
		Description: "Exit gate verification",
	},
}
