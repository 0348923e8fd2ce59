package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Role represents user roles in the system
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleManager  Role = "manager"
	RoleOperator Role = "operator"
	RoleViewer   Role = "viewer"
)

// User represents a user in the system
type User struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Username     string             `bson:"username" json:"username"`
	Email        string             `bson:"email" json:"email"`
	PasswordHash string             `bson:"password_hash" json:"-"`
	Role         Role               `bson:"role" json:"role"`
	IsActive     bool               `bson:"is_active" json:"is_active"`
	LastLogin    *time.Time         `bson:"last_login,omitempty" json:"last_login,omitempty"`
	CreatedAt    time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt    time.Time          `bson:"updated_at" json:"updated_at"`
}

// LoginRequest represents a login request
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse represents a successful login response
type LoginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	User      User      `json:"user"`
}

// Claims represents JWT claims
type Claims struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	Role     Role   `json:"role"`
	Exp      int64  `json:"exp"`
}

// IsValidRole checks if a role is valid
func IsValidRole(role Role) bool {
	switch role {
	case RoleAdmin, RoleManager, RoleOperator, RoleViewer:
		return true
	default:
		return false
	}
}

// Actions guarded by role permissions.
const (
	ActionViewAnalytics  = "view_analytics"
	ActionViewVehicles   = "view_vehicles"
	ActionManageVehicles = "manage_vehicles"
	ActionRecordService  = "record_service"
	ActionPredictCost    = "predict_cost"
	ActionTrainCostModel = "train_cost_model"
	ActionManageUsers    = "manage_users"
)

var rolePermissions = map[Role]map[string]bool{
	RoleManager: {
		ActionViewAnalytics:  true,
		ActionViewVehicles:   true,
		ActionManageVehicles: true,
		ActionRecordService:  true,
		ActionPredictCost:    true,
		ActionTrainCostModel: true,
	},
	RoleOperator: {
		ActionViewAnalytics: true,
		ActionViewVehicles:  true,
		ActionRecordService: true,
		ActionPredictCost:   true,
	},
	RoleViewer: {
		ActionViewAnalytics: true,
		ActionViewVehicles:  true,
	},
}

// HasPermission checks if a user has permission for a specific action
func (u *User) HasPermission(action string) bool {
	if u.Role == RoleAdmin {
		return true
	}
	return rolePermissions[u.Role][action]
}
