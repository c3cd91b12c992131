package model

// Privilege represents a permission that can be assigned to users
type Privilege struct {
	ID   uint   `gorm:"primaryKey" json:"id"`
	Code string `gorm:"type:varchar(50);uniqueIndex;not null" json:"code"` // e.g., "order:verify"
	Name string `gorm:"type:varchar(100)" json:"name"`
}

const (
	PrivUserView       = "user:view"
	PrivUserCreate     = "user:create"
	PrivProductCreate  = "product:create"
	PrivProductUpdate  = "product:update"
	PrivOfferManage    = "offer:manage"
	PrivOrderView      = "order:view"
	PrivOrderVerify    = "order:verify"
	PrivSalesView      = "sales:view"
	PrivAIChat         = "ai:chat"
	PrivAIReconcile    = "ai:reconcile"
	PrivDashboardView  = "dashboard:view"
	PrivInventoryWatch = "inventory:watch"
)

var DefaultPrivileges = []Privilege{
	{Code: PrivUserView, Name: "View Staff"},
	{Code: PrivUserCreate, Name: "Create Staff"},
	{Code: PrivProductCreate, Name: "Create Product"},
	{Code: PrivProductUpdate, Name: "Update Product"},
	{Code: PrivOfferManage, Name: "Manage Offers"},
	{Code: PrivOrderView, Name: "View Orders"},
	{Code: PrivOrderVerify, Name: "Verify Exit Passes"},
	{Code: PrivSalesView, Name: "View Sales"},
	{Code: PrivAIChat, Name: "Use AI Assistant"},
	{Code: PrivAIReconcile, Name: "AI Trolley Reconciliation"},
	{Code: PrivDashboardView, Name: "View Dashboard"},
	{Code: PrivInventoryWatch, Name: "Watch Inventory Feed"},
}

// SecurityPrivileges is what a gate agent gets.
var SecurityPrivileges = []string{PrivOrderView, PrivOrderVerify, PrivAIReconcile}
