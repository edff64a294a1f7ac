package model

// Student 学生名录 — 对应 students（仅用于展示姓名）
type Student struct {
	StudentID     string `gorm:"type:varchar(64);primaryKey" json:"student_id"`
	Name          string `gorm:"type:varchar(50);not null"   json:"name"`
	AcademyNumber int    `gorm:"not null;index"              json:"academy_number"`
	BaseModel
}

// TableName 指定表名
func (Student) TableName() string { return "students" }
