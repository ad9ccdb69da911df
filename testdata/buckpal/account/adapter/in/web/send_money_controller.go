package web

import (
	"net/http"
	"strconv"

	"example.com/buckpal/account/application/port/in"
	"example.com/buckpal/account/domain"
)

type SendMoneyController struct {
	UseCase in.SendMoneyUseCase
}

func (c *SendMoneyController) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	source, _ := strconv.ParseInt(r.URL.Query().Get("source"), 10, 64)
	target, _ := strconv.ParseInt(r.URL.Query().Get("target"), 10, 64)
	amount, _ := strconv.ParseInt(r.URL.Query().Get("amount"), 10, 64)
	err := c.UseCase.SendMoney(r.Context(), in.SendMoneyCommand{
		Source: domain.AccountID(source),
		Target: domain.AccountID(target),
		Money:  domain.Money(amount),
	})
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
