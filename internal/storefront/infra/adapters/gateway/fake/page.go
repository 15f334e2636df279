package fake

import (
	"html/template"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
)

var payPage = template.Must(template.New("pay").Parse(`<!doctype html>
<html>
<head><meta charset="utf-8"><title>Test payment</title></head>
<body>
<h1>Test payment</h1>
<p>No money is moved. Checkout {{.CheckoutID}}.</p>
<table>
{{range .LineItems}}<tr><td>{{.Name}}</td><td>{{.Quantity}} &times; {{.UnitAmount}}</td></tr>
{{end}}</table>
<p>Total: {{.Total}} {{.Currency}} (minor units)</p>
<p><a href="{{.SuccessURL}}">Pay</a> <a href="{{.CancelURL}}">Cancel</a></p>
</body>
</html>
`))

type payView struct {
	CheckoutID string
	LineItems  any
	Total      int64
	Currency   string
	SuccessURL string
	CancelURL  string
}

// Handler serves the hosted payment page for sessions created by g, at
// /pay/{sessionID}. The page links back to the session's success and cancel
// URLs.
func (g *Gateway) Handler() http.Handler {
	r := chi.NewRouter()
	r.Get("/pay/{sessionID}", func(w http.ResponseWriter, r *http.Request) {
		req, ok := g.session(chi.URLParam(r, "sessionID"))
		if !ok {
			http.NotFound(w, r)
			return
		}

		var total int64
		for _, it := range req.LineItems {
			total += it.Subtotal()
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		err := payPage.Execute(w, payView{
			CheckoutID: req.CheckoutID,
			LineItems:  req.LineItems,
			Total:      total,
			Currency:   req.Currency.String(),
			SuccessURL: req.SuccessURL,
			CancelURL:  req.CancelURL,
		})
		if err != nil {
			slog.ErrorContext(r.Context(), "render fake payment page", "error", err)
		}
	})
	return r
}
