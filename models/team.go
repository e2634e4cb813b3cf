package models

import "time"

// Team is a PKM proposal team. AdvisorID stays nil until a supervising
// lecturer accepts; proposal submission requires it to be set.
type Team struct {
	TeamID    int        `gorm:"primaryKey;column:team_id" json:"team_id"`
	TeamName  string     `gorm:"column:team_name" json:"team_name"`
	SkemaID   int        `gorm:"column:skema_id" json:"skema_id"`
	LeaderID  int        `gorm:"column:leader_id" json:"leader_id"`
	AdvisorID *int       `gorm:"column:advisor_id" json:"advisor_id,omitempty"`
	CreateAt  *time.Time `gorm:"column:create_at" json:"create_at"`
	UpdateAt  *time.Time `gorm:"column:update_at" json:"update_at"`
	DeleteAt  *time.Time `gorm:"column:delete_at" json:"delete_at,omitempty"`

	Skema   Skema        `gorm:"foreignKey:SkemaID" json:"skema,omitempty"`
	Leader  *User        `gorm:"foreignKey:LeaderID" json:"leader,omitempty"`
	Members []TeamMember `gorm:"foreignKey:TeamID" json:"members,omitempty"`
}

type TeamMember struct {
	TeamMemberID int        `gorm:"primaryKey;column:team_member_id" json:"team_member_id"`
	TeamID       int        `gorm:"column:team_id" json:"team_id"`
	UserID       int        `gorm:"column:user_id" json:"user_id"`
	MemberRole   string     `gorm:"column:member_role" json:"member_role"`
	CreateAt     *time.Time `gorm:"column:create_at" json:"create_at"`
	DeleteAt     *time.Time `gorm:"column:delete_at" json:"delete_at,omitempty"`

	User User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

func (Team) TableName() string {
	return "teams"
}

func (TeamMember) TableName() string {
	return "team_members"
}
