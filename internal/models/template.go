package models

type Template struct {
	ID        uint   `gorm:"primaryKey" json:"id"`
	Name      string `gorm:"size:255;not null;unique" json:"name"`
	Content   string `gorm:"type:text;not null;" json:"content"`
	IsDefault bool   `gorm:"not null;default:false" json:"isDefault"`
	SortOrder int    `gorm:"not null;default:0;index" json:"sortOrder"`
}

// TemplateOrderUpdate moves a template to a new position in the list.
type TemplateOrderUpdate struct {
	ID        uint `json:"id"`
	SortOrder int  `json:"sortOrder"`
}
