package model

type Upload struct {
	ID      string `json:"id"`
	UserID  string `json:"user_id"`
	FileKey string `json:"file_key"`
	Ctime   int64  `json:"ctime"`
}
