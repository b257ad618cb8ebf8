package materials

type AuthorLink struct {
	MaterialID uint `gorm:"column:material_id;primaryKey" json:"material_id"`
	UserID     uint `gorm:"column:user_id;primaryKey;index" json:"user_id"`
}

func (AuthorLink) TableName() string { return "author_link" }
