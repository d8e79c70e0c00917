package messages

import (
	"fmt"
	"html"
	"strings"

	"github.com/BatmanBruc/image-credits/types"
)

const ParseModeHTML = "HTML"

const CheckoutName = "Credits Recharge"

func Escape(s string) string {
	return html.EscapeString(strings.TrimSpace(s))
}

func CheckoutDescription(credits int64, creditType types.CreditType) string {
	return fmt.Sprintf("Recharge for %d %s credits", credits, creditType)
}

func WillReceive(credits int64, creditType types.CreditType) string {
	return fmt.Sprintf("You will get %d %s credits", credits, creditType)
}

func RechargeApplied(u types.BalanceUpdate) string {
	return fmt.Sprintf("💳 <b>Recharge</b>\n%s paid ₹%d\n➕ %d %s credits\n🧮 <b>Balance:</b> %d",
		Escape(u.Email), u.Amount, u.CreditsAdded, Escape(string(u.Type)), u.Balance)
}
