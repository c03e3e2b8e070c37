package checkout

import (
	"fmt"
	"net/url"
	"strings"

	"motoverse/internal/models"
)

// OrderMessage renders the pre-filled handoff text: customer details, the
// itemized list, and the total with its currency label.
func OrderMessage(order models.Order, currency string) string {
	var b strings.Builder

	b.WriteString("*New Order from MotoVerse!*\n\n")
	fmt.Fprintf(&b, "*Customer:* %s\n", order.CustomerName)
	fmt.Fprintf(&b, "*Phone:* %s\n", order.CustomerPhone)
	fmt.Fprintf(&b, "*Address:* %s\n\n", order.CustomerAddress)
	b.WriteString("*Order Details:*\n")
	for _, item := range order.Items {
		b.WriteString(itemLine(item))
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "\n*Total:* %s %s", order.Total.String(), currency)

	return b.String()
}

// WhatsAppLink builds the wa.me deep link that opens a chat with the dealer
// number and the message pre-filled.
func WhatsAppLink(number, message string) string {
	return fmt.Sprintf("https://wa.me/%s?text=%s", number, url.QueryEscape(message))
}
