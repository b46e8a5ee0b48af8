package models

// Category is an entry of the built-in category catalogue
type Category struct {
	ID            string
	Name          string
	Type          TransactionType
	Color         string
	Subcategories []string
}

// DefaultCategories returns the category catalogue offered to clients
func DefaultCategories() []Category {
	return []Category{
		{ID: "salary", Name: "Salary", Type: TransactionTypeCredit, Color: "#22c55e"},
		{ID: "freelance", Name: "Freelance", Type: TransactionTypeCredit, Color: "#0ea5e9"},
		{ID: "investments", Name: "Investments", Type: TransactionTypeCredit, Color: "#14b8a6"},
		{ID: "business", Name: "Business", Type: TransactionTypeCredit, Color: "#6366f1"},
		{ID: "rental", Name: "Rental", Type: TransactionTypeCredit, Color: "#f59e0b"},
		{ID: "other-income", Name: "Other Income", Type: TransactionTypeCredit, Color: "#64748b"},
		{ID: "housing", Name: "Housing", Type: TransactionTypeDebit, Color: "#f43f5e", Subcategories: []string{"Rent", "Mortgage", "Property Tax", "Maintenance"}},
		{ID: "transportation", Name: "Transportation", Type: TransactionTypeDebit, Color: "#f97316", Subcategories: []string{"Fuel", "Public Transport", "Maintenance", "Parking"}},
		{ID: "groceries", Name: "Groceries", Type: TransactionTypeDebit, Color: "#84cc16"},
		{ID: "utilities", Name: "Utilities", Type: TransactionTypeDebit, Color: "#06b6d4", Subcategories: []string{"Electricity", "Water", "Gas", "Internet", "Phone"}},
		{ID: "entertainment", Name: "Entertainment", Type: TransactionTypeDebit, Color: "#a855f7", Subcategories: []string{"Movies", "Games", "Streaming Services"}},
		{ID: "food", Name: "Food", Type: TransactionTypeDebit, Color: "#fb7185"},
		{ID: "shopping", Name: "Shopping", Type: TransactionTypeDebit, Color: "#ec4899", Subcategories: []string{"Clothing", "Electronics", "Home Goods"}},
		{ID: "healthcare", Name: "Healthcare", Type: TransactionTypeDebit, Color: "#0d9488", Subcategories: []string{"Medical", "Dental", "Pharmacy", "Insurance"}},
		{ID: "education", Name: "Education", Type: TransactionTypeDebit, Color: "#3b82f6", Subcategories: []string{"Tuition", "Books", "Courses"}},
		{ID: "personal", Name: "Personal Care", Type: TransactionTypeDebit, Color: "#d946ef", Subcategories: []string{"Haircut", "Gym", "Beauty"}},
		{ID: "travel", Name: "Travel", Type: TransactionTypeDebit, Color: "#0ea5e9"},
		{ID: "insurance", Name: "Insurance", Type: TransactionTypeDebit, Color: "#64748b", Subcategories: []string{"Life", "Home", "Vehicle"}},
		{ID: "gifts", Name: "Gifts & Donations", Type: TransactionTypeDebit, Color: "#f472b6"},
		{ID: "bills", Name: "Bills & Fees", Type: TransactionTypeDebit, Color: "#e11d48", Subcategories: []string{"Bank Fees", "Late Fees", "Service Charges"}},
		{ID: "other-expense", Name: "Other expenses", Type: TransactionTypeDebit, Color: "#94a3b8"},
	}
}
