package dto

type RouteQuery struct {
	Path string `query:"path" validate:"required"`
	Lang string `query:"lang" validate:"required"`
}

type RouteResponse struct {
	Path       string `json:"path"`
	Lang       string `json:"lang"`
	Result     string `json:"result"`
	Translated bool   `json:"translated"`
}
