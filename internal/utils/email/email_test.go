package email

import (
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/Dan9191/finix/internal/config"
	"github.com/Dan9191/finix/internal/models"
	"github.com/jordan-wright/email"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

func newTestSender(sent *[]*email.Email, fail bool) *Sender {
	log := logrus.New()
	log.SetOutput(io.Discard)
	s := NewSender(&config.Config{SenderEmail: "Finix <noreply@finix.local>"}, log)
	s.send = func(e *email.Email) error {
		if fail {
			return errors.New("connection refused")
		}
		*sent = append(*sent, e)
		return nil
	}
	return s
}

func TestSendBudgetAlert(t *testing.T) {
	var sent []*email.Email
	s := newTestSender(&sent, false)

	err := s.SendBudgetAlert("ann@example.com", models.BudgetAlert{
		UserName:       "Ann",
		AccountName:    "Main <script>",
		BudgetAmount:   decimal.RequireFromString("100"),
		TotalExpenses:  decimal.RequireFromString("87.5"),
		PercentageUsed: decimal.RequireFromString("87.5"),
	})
	if err != nil {
		t.Fatalf("send budget alert: %v", err)
	}
	if len(sent) != 1 {
		t.Fatalf("expected 1 email, got %d", len(sent))
	}
	e := sent[0]
	if e.To[0] != "ann@example.com" || e.Subject != "Budget Alert for Main <script>" {
		t.Fatalf("unexpected envelope: %v %q", e.To, e.Subject)
	}
	if !strings.Contains(string(e.Text), "87.5% of your monthly budget") || !strings.Contains(string(e.Text), "Remaining: 12.50") {
		t.Fatalf("unexpected text body:\n%s", e.Text)
	}
	if strings.Contains(string(e.HTML), "<script>") || !strings.Contains(string(e.HTML), "Main &lt;script&gt;") {
		t.Fatalf("expected escaped account name in html body:\n%s", e.HTML)
	}
}

func TestSendMonthlyReport(t *testing.T) {
	var sent []*email.Email
	s := newTestSender(&sent, false)

	err := s.SendMonthlyReport("ann@example.com", models.MonthlyReport{
		UserName: "Ann",
		Month:    "February",
		Stats: models.MonthlyStats{
			TotalIncome:   decimal.RequireFromString("3000"),
			TotalExpenses: decimal.RequireFromString("1300"),
			ByCategory: map[string]decimal.Decimal{
				"food":    decimal.RequireFromString("100"),
				"housing": decimal.RequireFromString("1200"),
			},
			TransactionCount: 4,
		},
		Insights: []string{"Spend less on housing."},
	})
	if err != nil {
		t.Fatalf("send monthly report: %v", err)
	}
	e := sent[0]
	if e.Subject != "Your Monthly Financial Report - February" {
		t.Fatalf("unexpected subject %q", e.Subject)
	}
	text := string(e.Text)
	if !strings.Contains(text, "Net: 1700.00") || strings.Index(text, "housing") > strings.Index(text, "food") {
		t.Fatalf("unexpected text body:\n%s", text)
	}
	if !strings.Contains(string(e.HTML), "<li>Spend less on housing.</li>") {
		t.Fatalf("expected insights in html body:\n%s", e.HTML)
	}
}

func TestSendFailureIsReported(t *testing.T) {
	var sent []*email.Email
	s := newTestSender(&sent, true)
	if err := s.SendMonthlyReport("ann@example.com", models.MonthlyReport{Month: "February"}); err == nil {
		t.Fatalf("expected an error")
	}
}
