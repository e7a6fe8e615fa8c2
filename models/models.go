// Package models holds the gorm entities of the blog and the query scopes shared by every read path.
package models

// All returns every model persisted by the application, in migration order.
func All() []interface{} {
	return []interface{}{&User{}, &Category{}, &Location{}, &Post{}, &Comment{}, &PageView{}}
}
