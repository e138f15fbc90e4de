package notification

import (
	"html/template"
	"strings"

	"storefront-settlement/internal/settlement/domain"
)

var confirmedTmpl = template.Must(template.New("confirmed").Parse(`<html><body>
<p>Hi {{.Name}},</p>
<p>Your order <strong>{{.OrderNumber}}</strong> is confirmed.</p>
<table>
{{range .Items}}<tr><td>{{.ProductName}}</td><td>{{.Quantity}} × {{.UnitPrice}}</td><td>{{.LineTotal}}</td></tr>
{{end}}</table>
<p>Subtotal: {{.Subtotal}}<br>
Shipping: {{.Shipping}}<br>
Tax: {{.Tax}}<br>
{{if .Discount}}Discount: -{{.Discount}}<br>{{end}}
<strong>Total: {{.Total}}</strong></p>
<p>We will email you again when your order ships.</p>
</body></html>`))

var pendingTmpl = template.Must(template.New("pending").Parse(`<html><body>
<p>Hi {{.Name}},</p>
<p>We have received your payment (reference <strong>{{.Reference}}</strong>).</p>
<p>Your order is pending manual confirmation and will be processed shortly.
No further action is needed from you.</p>
</body></html>`))

var failedTmpl = template.Must(template.New("failed").Parse(`<html><body>
<p>Hi {{.Name}},</p>
<p>{{.Reason}}. You have not been charged for this attempt.</p>
<p>You can retry the payment from your cart at any time.</p>
</body></html>`))

type confirmedData struct {
	Name        string
	OrderNumber string
	Items       []itemData
	Subtotal    string
	Shipping    string
	Tax         string
	Discount    string
	Total       string
}

type itemData struct {
	ProductName string
	Quantity    int
	UnitPrice   string
	LineTotal   string
}

func renderConfirmed(order domain.Order, name string) (string, error) {
	data := confirmedData{
		Name:        displayName(name),
		OrderNumber: order.OrderNumber,
		Subtotal:    domain.DisplayString(order.Subtotal),
		Shipping:    domain.DisplayString(order.ShippingCost),
		Tax:         domain.DisplayString(order.TaxAmount),
		Total:       domain.DisplayString(order.TotalAmount),
	}
	if order.DiscountAmount > 0 {
		data.Discount = domain.DisplayString(order.DiscountAmount)
	}
	for _, item := range order.Items {
		data.Items = append(data.Items, itemData{
			ProductName: item.ProductName,
			Quantity:    item.Quantity,
			UnitPrice:   domain.DisplayString(item.UnitPrice),
			LineTotal:   domain.DisplayString(item.LineTotal),
		})
	}
	return render(confirmedTmpl, data)
}

func renderPending(name, reference string) (string, error) {
	return render(pendingTmpl, struct {
		Name      string
		Reference string
	}{displayName(name), reference})
}

func renderFailed(name, reason string) (string, error) {
	return render(failedTmpl, struct {
		Name   string
		Reason string
	}{displayName(name), reason})
}

func render(t *template.Template, data any) (string, error) {
	var sb strings.Builder
	if err := t.Execute(&sb, data); err != nil {
		return "", err
	}
	return sb.String(), nil
}

func displayName(name string) string {
	if name == "" {
		return "there"
	}
	return name
}
