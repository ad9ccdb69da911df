package configuration

import (
	"net/http"
	"time"

	"example.com/buckpal/account/adapter/in/web"
	"example.com/buckpal/account/adapter/out/persistence"
	"example.com/buckpal/account/application/service"
)

func NewHandler() http.Handler {
	store := persistence.NewAccountPersistenceAdapter()
	svc := &service.SendMoneyService{Load: store, Update: store, Now: time.Now}
	return &web.SendMoneyController{UseCase: svc}
}
