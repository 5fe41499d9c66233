package api

import (
	"net/http"

	"github.com/epicevents/crm/pkg/httputil"
	"github.com/epicevents/crm/pkg/storage"
)

func parseClientFilter(r *http.Request) (storage.ClientFilter, error) {
	var filter storage.ClientFilter
	status, err := httputil.ParseQueryBoolPtr(r, "status")
	if err != nil {
		return filter, err
	}
	filter.Status = status
	filter.Search = httputil.ParseQueryString(r, "search", "")
	return filter, nil
}

func parseContractFilter(r *http.Request) (storage.ContractFilter, error) {
	var filter storage.ContractFilter
	var err error
	if filter.Status, err = httputil.ParseQueryBoolPtr(r, "status"); err != nil {
		return filter, err
	}
	if filter.AmountMin, err = httputil.ParseQueryFloatPtr(r, "amount_min"); err != nil {
		return filter, err
	}
	if filter.AmountMax, err = httputil.ParseQueryFloatPtr(r, "amount_max"); err != nil {
		return filter, err
	}
	if filter.PaymentDueGTE, err = httputil.ParseQueryTimePtr(r, "payment_due_gte"); err != nil {
		return filter, err
	}
	if filter.PaymentDueLTE, err = httputil.ParseQueryTimePtr(r, "payment_due_lte"); err != nil {
		return filter, err
	}
	return filter, nil
}

func parseEventFilter(r *http.Request) (storage.EventFilter, error) {
	var filter storage.EventFilter
	var err error
	if filter.EventStatus, err = httputil.ParseQueryBoolPtr(r, "event_status"); err != nil {
		return filter, err
	}
	if filter.AttendeesMin, err = httputil.ParseQueryIntPtr(r, "attendees_min"); err != nil {
		return filter, err
	}
	if filter.AttendeesMax, err = httputil.ParseQueryIntPtr(r, "attendees_max"); err != nil {
		return filter, err
	}
	if filter.EventDateGTE, err = httputil.ParseQueryTimePtr(r, "event_date_gte"); err != nil {
		return filter, err
	}
	if filter.EventDateLTE, err = httputil.ParseQueryTimePtr(r, "event_date_lte"); err != nil {
		return filter, err
	}
	filter.Search = httputil.ParseQueryString(r, "search", "")
	return filter, nil
}
