package notify

import (
	"fmt"
	"strings"

	"rental-marketplace/internal/models"
)

type message struct {
	Subject string
	Body    string
}

func renderMessage(c *models.Consultation) message {
	var b strings.Builder
	if c.Locale == "ja" {
		fmt.Fprintf(&b, "物件 %s について新しい相談が届きました。\n\n", c.ListingID)
		fmt.Fprintf(&b, "お名前: %s\nメール: %s\n", c.TenantName, c.TenantEmail)
		if c.TenantPhone != "" {
			fmt.Fprintf(&b, "電話: %s\n", c.TenantPhone)
		}
		if c.PreferredDate != "" {
			fmt.Fprintf(&b, "希望日: %s\n", c.PreferredDate)
		}
		if c.Message != "" {
			fmt.Fprintf(&b, "\n%s\n", c.Message)
		}
		return message{Subject: "新しい相談リクエスト", Body: b.String()}
	}

	fmt.Fprintf(&b, "A tenant asked about listing %s.\n\n", c.ListingID)
	fmt.Fprintf(&b, "Name: %s\nEmail: %s\n", c.TenantName, c.TenantEmail)
	if c.TenantPhone != "" {
		fmt.Fprintf(&b, "Phone: %s\n", c.TenantPhone)
	}
	if c.PreferredDate != "" {
		fmt.Fprintf(&b, "Preferred date: %s\n", c.PreferredDate)
	}
	if c.Message != "" {
		fmt.Fprintf(&b, "\n%s\n", c.Message)
	}
	return message{Subject: "New consultation request", Body: b.String()}
}
