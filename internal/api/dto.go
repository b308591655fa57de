package api

import (
	"time"

	"github.com/mmynk/nutrimed/internal/models"
	"github.com/mmynk/nutrimed/internal/service"
)

type credentialsRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type userResponse struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

type tokenResponse struct {
	AccessToken string       `json:"access_token"`
	TokenType   string       `json:"token_type"`
	User        userResponse `json:"user"`
}

type createAnalysisRequest struct {
	DishName string  `json:"dishName" validate:"required,max=200"`
	Analysis string  `json:"analysis" validate:"required"`
	Preview  *string `json:"preview"`
}

type renameAnalysisRequest struct {
	DishName string `json:"dishName" validate:"required,max=200"`
}

type analysisResponse struct {
	ID       string    `json:"id"`
	DishName string    `json:"dishName"`
	Analysis string    `json:"analysis"`
	Preview  *string   `json:"preview"`
	Date     time.Time `json:"date"`
}

type okResponse struct {
	OK bool `json:"ok"`
}

type deleteAllResponse struct {
	OK      bool  `json:"ok"`
	Deleted int64 `json:"deleted"`
}

type analyzeResponse struct {
	Analysis string `json:"analysis"`
}

type healthResponse struct {
	Message string `json:"message"`
	Status  string `json:"status"`
}

func toUserResponse(u *models.User) userResponse {
	return userResponse{ID: u.ID, Email: u.Email}
}

func toTokenResponse(res *service.AuthResult) tokenResponse {
	return tokenResponse{
		AccessToken: res.Token,
		TokenType:   "bearer",
		User:        toUserResponse(res.User),
	}
}

func toAnalysisResponse(a *models.Analysis) analysisResponse {
	return analysisResponse{
		ID:       a.ID,
		DishName: a.DishName,
		Analysis: a.Text,
		Preview:  a.Preview,
		Date:     a.CreatedAt.UTC(),
	}
}

func toAnalysisList(list []*models.Analysis) []analysisResponse {
	out := make([]analysisResponse, 0, len(list))
	for _, a := range list {
		out = append(out, toAnalysisResponse(a))
	}
	return out
}
