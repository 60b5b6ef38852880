package notifications

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

var markdownV2Replacer = strings.NewReplacer(
	`\`, `\\`,
	"_", `\_`, "*", `\*`, "[", `\[`, "]", `\]`, "(", `\(`, ")", `\)`,
	"~", `\~`, "`", "\\`", ">", `\>`, "#", `\#`, "+", `\+`, "-", `\-`,
	"=", `\=`, "|", `\|`, "{", `\{`, "}", `\}`, ".", `\.`, "!", `\!`,
)

// EscapeMarkdownV2 escapes every character Telegram reserves in MarkdownV2.
func EscapeMarkdownV2(text string) string {
	return markdownV2Replacer.Replace(text)
}

// FormatNaira renders an amount with thousands separators, dropping a zero
// kobo part: 15000 -> "₦15,000", 1234.5 -> "₦1,234.50".
func FormatNaira(amount decimal.Decimal) string {
	sign := ""
	if amount.IsNegative() {
		sign = "-"
		amount = amount.Neg()
	}
	fixed := amount.StringFixed(2)
	whole, frac, _ := strings.Cut(fixed, ".")

	var b strings.Builder
	for i, r := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	if frac != "00" {
		b.WriteString("." + frac)
	}
	return sign + "₦" + b.String()
}

func telegramText(order OrderSummary) string {
	var b strings.Builder
	b.WriteString("📦 *NEW ORDER RECEIVED*\n\n")
	fmt.Fprintf(&b, "*Customer:* %s\n", EscapeMarkdownV2(order.CustomerName))
	fmt.Fprintf(&b, "*Product:* %s\n", EscapeMarkdownV2(productLine(order)))
	fmt.Fprintf(&b, "*Amount:* %s\n", EscapeMarkdownV2(FormatNaira(order.Amount)))
	fmt.Fprintf(&b, "*Phone:* %s\n\n", EscapeMarkdownV2(order.CustomerPhone))
	fmt.Fprintf(&b, "*Order ID:* `%s`", order.OrderID)
	return b.String()
}

func plainText(order OrderSummary, salesURL string) string {
	var b strings.Builder
	b.WriteString("📦 *NEW ORDER RECEIVED* 📦\n\n")
	fmt.Fprintf(&b, "Customer: %s\n", order.CustomerName)
	fmt.Fprintf(&b, "Product: %s\n", productLine(order))
	fmt.Fprintf(&b, "Amount: %s\n", FormatNaira(order.Amount))
	fmt.Fprintf(&b, "Customer Phone: %s\n", order.CustomerPhone)
	if salesURL != "" {
		fmt.Fprintf(&b, "\n🔗 View in Sales: %s\n", salesURL)
	}
	fmt.Fprintf(&b, "\nOrder ID: %s", order.OrderID)
	return b.String()
}

func productLine(order OrderSummary) string {
	name := order.ProductName
	if name == "" {
		name = "Unknown Product"
	}
	if order.Quantity > 1 {
		return fmt.Sprintf("%s x%d", name, order.Quantity)
	}
	return name
}
