package handler

import (
	"github.com/labstack/echo/v4"

	"haulhub/internal/adapter/api/middleware"
	"haulhub/internal/domain/entity"
)

func actorFrom(c echo.Context) (entity.Actor, bool) {
	return middleware.Actor(c)
}
