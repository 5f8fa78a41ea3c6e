package assistant

import (
	"fmt"
	"strings"

	"rental-marketplace/internal/models"
)

// Feature labels carried on prompts.
const (
	FeatureCommute       = "commute_assessment"
	FeatureChat          = "chat"
	FeatureAgreementRisk = "agreement_risk"
	LocaleEnglish        = "en"
	LocaleJapanese       = "ja"
)

const maxAgreementCharacters = 30000

var systemPrompts = map[string]map[string]string{
	FeatureCommute: {
		LocaleEnglish: "You are a relocation advisor for renters in Malaysia. Assess the commute between a rental " +
			"listing and the tenant's workplace. Answer in Markdown with the sections: Summary, Routes, " +
			"Peak-hour outlook, Verdict. Be concrete about travel modes and approximate times.",
		LocaleJapanese: "あなたはマレーシアで部屋を探す人のための住まいアドバイザーです。物件と勤務先の間の通勤を評価してください。" +
			"Markdown で「概要」「経路」「ラッシュ時の見通し」「結論」の見出しを使って回答してください。",
	},
	FeatureChat: {
		LocaleEnglish: "You are a helpful assistant on a room rental marketplace. Answer questions about listings, " +
			"neighbourhoods and the rental process. Keep answers short and factual. Say so when you do not know.",
		LocaleJapanese: "あなたは部屋探しマーケットプレイスのアシスタントです。物件、周辺環境、賃貸手続きについての質問に" +
			"簡潔かつ正確に答えてください。分からない場合はその旨を伝えてください。",
	},
	FeatureAgreementRisk: {
		LocaleEnglish: "You review tenancy agreements for property owners in Malaysia. Summarize the clauses that " +
			"expose the owner to risk, grouped by severity (High, Medium, Low), and suggest a fix for each. " +
			"Answer in Markdown. Do not give legal advice beyond the text provided.",
		LocaleJapanese: "あなたはマレーシアの物件オーナー向けに賃貸契約書を確認する担当者です。オーナーにリスクのある条項を" +
			"重要度（高・中・低）ごとに要約し、それぞれの改善案を示してください。Markdown で回答してください。",
	},
}

func system(feature, locale string) string {
	if p, ok := systemPrompts[feature][locale]; ok {
		return p
	}
	return systemPrompts[feature][LocaleEnglish]
}

// NormalizeLocale maps anything other than Japanese to English.
func NormalizeLocale(locale string) string {
	if strings.HasPrefix(strings.ToLower(locale), LocaleJapanese) {
		return LocaleJapanese
	}
	return LocaleEnglish
}

// CommuteInput is what the commute assessment knows about the tenant and the listing.
type CommuteInput struct {
	Listing        models.Listing
	Workplace      string
	WorkplacePoint *models.GeoPoint
	TransportModes []string
	Priorities     string
	Locale         string
}

func CommutePrompt(in CommuteInput) Prompt {
	var b strings.Builder
	writeListing(&b, in.Listing)
	fmt.Fprintf(&b, "Workplace: %s\n", in.Workplace)
	if in.WorkplacePoint != nil {
		fmt.Fprintf(&b, "Workplace coordinates: %s\n", in.WorkplacePoint)
		if in.Listing.Location.Valid() && in.Listing.Location != (models.GeoPoint{}) {
			fmt.Fprintf(&b, "Straight-line distance: %.1f km\n", in.Listing.Location.DistanceKm(*in.WorkplacePoint))
		}
	}
	if len(in.TransportModes) > 0 {
		fmt.Fprintf(&b, "Preferred transport: %s\n", strings.Join(in.TransportModes, ", "))
	}
	if p := strings.TrimSpace(in.Priorities); p != "" {
		fmt.Fprintf(&b, "Tenant priorities: %s\n", p)
	}

	locale := NormalizeLocale(in.Locale)
	return Prompt{
		Feature: FeatureCommute,
		System:  system(FeatureCommute, locale),
		User:    b.String(),
	}
}

// ChatInput is one chat message with its history and optional listing context.
type ChatInput struct {
	Listing *models.Listing
	History []Turn
	Message string
	Locale  string
}

func ChatPrompt(in ChatInput) Prompt {
	locale := NormalizeLocale(in.Locale)
	sys := system(FeatureChat, locale)
	if in.Listing != nil {
		var b strings.Builder
		b.WriteString(sys)
		b.WriteString("\n\nThe user is looking at this listing:\n")
		writeListing(&b, *in.Listing)
		sys = b.String()
	}
	return Prompt{
		Feature: FeatureChat,
		System:  sys,
		History: in.History,
		User:    in.Message,
	}
}

// AgreementInput is an owner's tenancy agreement for one of their listings.
type AgreementInput struct {
	Listing       models.Listing
	AgreementText string
	Locale        string
}

func AgreementRiskPrompt(in AgreementInput) Prompt {
	text := strings.TrimSpace(in.AgreementText)
	if r := []rune(text); len(r) > maxAgreementCharacters {
		text = string(r[:maxAgreementCharacters])
	}

	var b strings.Builder
	writeListing(&b, in.Listing)
	b.WriteString("\nTenancy agreement:\n\"\"\"\n")
	b.WriteString(text)
	b.WriteString("\n\"\"\"\n")

	locale := NormalizeLocale(in.Locale)
	return Prompt{
		Feature: FeatureAgreementRisk,
		System:  system(FeatureAgreementRisk, locale),
		User:    b.String(),
	}
}

func writeListing(b *strings.Builder, l models.Listing) {
	fmt.Fprintf(b, "Listing: %s\n", l.Title)
	if l.Address != "" {
		fmt.Fprintf(b, "Address: %s\n", l.Address)
	}
	if l.City != "" {
		fmt.Fprintf(b, "City: %s\n", l.City)
	}
	if l.Location != (models.GeoPoint{}) {
		fmt.Fprintf(b, "Coordinates: %s\n", l.Location)
	}
	fmt.Fprintf(b, "Monthly rent: RM %d\n", l.Rent)
	if l.RoomType != "" {
		fmt.Fprintf(b, "Room type: %s\n", l.RoomType)
	}
	if l.Gender != "" && l.Gender != models.GenderAny {
		fmt.Fprintf(b, "Tenant gender: %s\n", l.Gender)
	}
}
