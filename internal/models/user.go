// internal/models/user.go
package models

type User struct {
	BaseModel
	Name      string   `json:"name" gorm:"size:100;not null"`
	Email     string   `json:"email" gorm:"uniqueIndex;size:255;not null"`
	Role      UserRole `json:"role" gorm:"type:varchar(20);not null;default:'artist'"`
	Country   string   `json:"country" gorm:"size:100"`
	AvatarURL string   `json:"avatar_url,omitempty" gorm:"size:500"`

	// Relationships
	Beats []Beat `json:"beats,omitempty" gorm:"foreignKey:ProducerID"`
}
