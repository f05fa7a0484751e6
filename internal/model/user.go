package model

type User struct {
	ID           string `json:"id"`
	Email        string `json:"email"`
	Name         string `json:"name"`
	PasswordHash string `json:"-"`
	Status       string `json:"status"`
	Ctime        int64  `json:"ctime"`
	Mtime        int64  `json:"mtime"`
}
