package email

import (
	"bytes"
	"fmt"
	"html/template"
	"net/smtp"
	"strings"

	"github.com/Dan9191/finix/internal/config"
	"github.com/Dan9191/finix/internal/models"
	"github.com/jordan-wright/email"
	"github.com/sirupsen/logrus"
)

// Sender handles sending emails via SMTP
type Sender struct {
	cfg    *config.Config
	logger *logrus.Logger
	send   func(e *email.Email) error
}

// NewSender creates a new email sender
func NewSender(cfg *config.Config, logger *logrus.Logger) *Sender {
	s := &Sender{
		cfg:    cfg,
		logger: logger,
	}
	s.send = s.smtpSend
	return s
}

func (s *Sender) smtpSend(e *email.Email) error {
	addr := fmt.Sprintf("%s:%s", s.cfg.SMTPHost, s.cfg.SMTPPort)
	var auth smtp.Auth
	if s.cfg.SMTPUsername != "" {
		auth = smtp.PlainAuth("", s.cfg.SMTPUsername, s.cfg.SMTPPassword, s.cfg.SMTPHost)
	}
	return e.Send(addr, auth)
}

var budgetAlertHTML = template.Must(template.New("budget_alert").Parse(`<!DOCTYPE html>
<html><body style="font-family: sans-serif">
<h1>Budget Alert</h1>
<p>Hello {{.UserName}},</p>
<p>You've used <strong>{{.Percentage}}%</strong> of your monthly budget for <strong>{{.AccountName}}</strong>.</p>
<table>
<tr><td>Budget Amount</td><td>{{.Budget}}</td></tr>
<tr><td>Spent So Far</td><td>{{.Spent}}</td></tr>
<tr><td>Remaining</td><td>{{.Remaining}}</td></tr>
</table>
</body></html>`))

var monthlyReportHTML = template.Must(template.New("monthly_report").Parse(`<!DOCTYPE html>
<html><body style="font-family: sans-serif">
<h1>Your Monthly Financial Report</h1>
<p>Hello {{.UserName}},</p>
<p>Here's your financial summary for {{.Month}}{{if .AccountName}} ({{.AccountName}}){{end}}:</p>
<table>
<tr><td>Total Income</td><td>{{.Income}}</td></tr>
<tr><td>Total Expenses</td><td>{{.Expenses}}</td></tr>
<tr><td>Net</td><td>{{.Net}}</td></tr>
<tr><td>Transactions</td><td>{{.Count}}</td></tr>
</table>
{{if .Categories}}<h2>Expenses by Category</h2>
<ul>{{range .Categories}}<li>{{.Category}}: {{.Total}}</li>{{end}}</ul>{{end}}
{{if .Insights}}<h2>Insights</h2>
<ul>{{range .Insights}}<li>{{.}}</li>{{end}}</ul>{{end}}
</body></html>`))

type budgetAlertData struct {
	UserName    string
	AccountName string
	Percentage  string
	Budget      string
	Spent       string
	Remaining   string
}

type categoryLine struct {
	Category string
	Total    string
}

type monthlyReportData struct {
	UserName    string
	AccountName string
	Month       string
	Income      string
	Expenses    string
	Net         string
	Count       int
	Categories  []categoryLine
	Insights    []string
}

// SendBudgetAlert tells a user they are close to their monthly budget
func (s *Sender) SendBudgetAlert(to string, alert models.BudgetAlert) error {
	data := budgetAlertData{
		UserName:    alert.UserName,
		AccountName: alert.AccountName,
		Percentage:  alert.PercentageUsed.StringFixed(1),
		Budget:      alert.BudgetAmount.StringFixed(2),
		Spent:       alert.TotalExpenses.StringFixed(2),
		Remaining:   alert.BudgetAmount.Sub(alert.TotalExpenses).StringFixed(2),
	}

	// Format email body
	body := fmt.Sprintf("Dear %s,\n\n", data.UserName) +
		fmt.Sprintf("You've used %s%% of your monthly budget for %s.\n", data.Percentage, data.AccountName) +
		fmt.Sprintf("Budget: %s\nSpent so far: %s\nRemaining: %s\n", data.Budget, data.Spent, data.Remaining) +
		"\nBest regards,\nFinix"

	return s.deliver(to, "Budget Alert for "+data.AccountName, body, budgetAlertHTML, data)
}

// SendMonthlyReport sends a user the summary of last month
func (s *Sender) SendMonthlyReport(to string, report models.MonthlyReport) error {
	data := monthlyReportData{
		UserName:    report.UserName,
		AccountName: report.AccountName,
		Month:       report.Month,
		Income:      report.Stats.TotalIncome.StringFixed(2),
		Expenses:    report.Stats.TotalExpenses.StringFixed(2),
		Net:         report.Stats.NetSavings().StringFixed(2),
		Count:       report.Stats.TransactionCount,
		Insights:    report.Insights,
	}
	for _, c := range report.Stats.Categories() {
		data.Categories = append(data.Categories, categoryLine{Category: c.Category, Total: c.Total.StringFixed(2)})
	}

	// Format email body
	var body strings.Builder
	fmt.Fprintf(&body, "Dear %s,\n\nHere's your financial summary for %s:\n", data.UserName, data.Month)
	fmt.Fprintf(&body, "Total income: %s\nTotal expenses: %s\nNet: %s\nTransactions: %d\n",
		data.Income, data.Expenses, data.Net, data.Count)
	for _, c := range data.Categories {
		fmt.Fprintf(&body, "  %s: %s\n", c.Category, c.Total)
	}
	if len(data.Insights) > 0 {
		body.WriteString("\nInsights:\n")
		for _, insight := range data.Insights {
			fmt.Fprintf(&body, "- %s\n", insight)
		}
	}
	body.WriteString("\nBest regards,\nFinix")

	return s.deliver(to, fmt.Sprintf("Your Monthly Financial Report - %s", data.Month), body.String(), monthlyReportHTML, data)
}

func (s *Sender) deliver(to, subject, text string, html *template.Template, data any) error {
	var rendered bytes.Buffer
	if err := html.Execute(&rendered, data); err != nil {
		return fmt.Errorf("failed to render %s email: %w", html.Name(), err)
	}

	e := email.NewEmail()
	e.From = s.cfg.SenderEmail
	e.To = []string{to}
	e.Subject = subject
	e.Text = []byte(text)
	e.HTML = rendered.Bytes()

	// Send email
	if err := s.send(e); err != nil {
		s.logger.Errorf("Failed to send email to %s: %v", to, err)
		return fmt.Errorf("failed to send email: %w", err)
	}

	s.logger.Infof("Email sent to %s: %s", to, e.Subject)
	return nil
}
