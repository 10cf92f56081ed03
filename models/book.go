package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// MaxDescriptionLength bounds Book.Description.
const MaxDescriptionLength = 10000

// Book maps a row of the booksinfo table. Username and Email are copied from
// the creator's token when the book is added.
type Book struct {
	ID              uint                `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	Title           string              `gorm:"column:title;type:varchar(255)" json:"title"`
	Genre           string              `gorm:"column:genre;type:varchar(100)" json:"genre"`
	Price           decimal.NullDecimal `gorm:"column:price;type:decimal(10,2)" json:"price"`
	ImagePath       string              `gorm:"column:imagepath;type:varchar(255)" json:"imagepath"`
	Author          string              `gorm:"column:author;type:varchar(255)" json:"author"`
	PublicationDate Date                `gorm:"column:publicationdate;type:date" json:"publicationdate"`
	Publisher       string              `gorm:"column:publisher;type:varchar(255)" json:"publisher"`
	Description     string              `gorm:"column:description;type:varchar(10000)" json:"description"`
	Username        string              `gorm:"column:username;type:varchar(100)" json:"username"`
	Email           string              `gorm:"column:email;type:varchar(100)" json:"email"`
	// Zero on insert so the database default applies.
	CreatedAt time.Time `gorm:"column:created_at;type:timestamp;default:CURRENT_TIMESTAMP;autoCreateTime:false" json:"created_at"`
}

func (Book) TableName() string { return "booksinfo" }

// DailyCount is one row of the per-day creation histogram.
type DailyCount struct {
	Date  Date  `gorm:"column:date" json:"date"`
	Count int64 `gorm:"column:count" json:"count"`
}
