package models

import (
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"
)

const (
	RoleAdmin   = "admin"
	RoleAnalyst = "analyst"
)

type User struct {
	ID       primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	Username string             `bson:"username" json:"username" validate:"required"`
	Email    string             `bson:"email" json:"email" validate:"omitempty,email"`
	Role     string             `bson:"role" json:"role" validate:"omitempty,oneof=admin analyst"`
	Password string             `bson:"password,omitempty" json:"-"`
}

// bcryptCost is a variable so tests can lower it.
var bcryptCost = 14

func (u *User) HashPassword(password string) error {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return err
	}
	u.Password = string(bytes)
	return nil
}

func (u *User) CheckPassword(providedPassword string) error {
	return bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(providedPassword))
}
