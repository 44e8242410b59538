package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Project is one client engagement tracked for billing and role fulfillment.
//
// HoursOrHires is overloaded by the business: it means hours worked under the
// Hourly model and hire count under the Success models. Aggregations
// disambiguate with a <=10 threshold (see pkg/analytics).
type Project struct {
	ID           string        `gorm:"type:varchar(36);primaryKey" json:"id"`
	Company      string        `gorm:"type:varchar(255);not null;index:idx_projects_company" json:"company"`
	Sourcer      string        `gorm:"type:varchar(255);not null;index:idx_projects_sourcer" json:"sourcer"`
	GroupType    GroupType     `gorm:"type:varchar(16);not null;index:idx_projects_group_type" json:"group_type"`
	ModelType    ModelType     `gorm:"type:varchar(32);not null" json:"model_type"`
	Roles        *string       `gorm:"type:varchar(255)" json:"roles"`
	RolesCount   int           `gorm:"not null;default:1" json:"roles_count"`
	HoursOrHires *int          `json:"hours_or_hires"`
	StartDate    *string       `gorm:"type:date" json:"start_date"`
	EndDate      *string       `gorm:"type:date" json:"end_date"`
	TimeToHire   *string       `gorm:"type:varchar(255)" json:"time_to_hire"`
	Notes        *string       `gorm:"type:text" json:"notes"`
	Status       ProjectStatus `gorm:"type:varchar(16);not null;default:active;index:idx_projects_status" json:"status"`
	CreatedAt    time.Time     `json:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at"`
}

func (p *Project) BeforeCreate(_ *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}
