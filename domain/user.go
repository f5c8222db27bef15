package domain

import "go.mongodb.org/mongo-driver/bson/primitive"

// User is a registered account. Password holds the bcrypt hash and is never
// serialized to clients.
type User struct {
	ID       primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	Username string             `bson:"username" json:"username"`
	Email    string             `bson:"email" json:"email"`
	Password string             `bson:"password" json:"-"`
}
