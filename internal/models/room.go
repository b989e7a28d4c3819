package models

type Room struct {
	ID        int64  `json:"id" yaml:"-"`
	Name      string `json:"name" yaml:"name"`
	Capacity  int64  `json:"capacity" yaml:"capacity"`
	Equipment string `json:"equipment" yaml:"equipment"`
	Location  string `json:"location" yaml:"location"`
	Status    string `json:"status" yaml:"status"`
}
