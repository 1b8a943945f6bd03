// Package stats computes the informational aggregates attached to list
// responses. They cover only the records of the returned page.
package stats

import (
	"math"

	"github.com/records-api/internal/models"
)

// Unassigned labels records with an empty grouping value
const Unassigned = "Unassigned"

// ArticleSummary aggregates a page of articles
type ArticleSummary struct {
	Count                int     `json:"count"`
	TotalInventoryValue  float64 `json:"totalInventoryValue"`
	AverageSalesPrice    float64 `json:"averageSalesPrice"`
	AveragePurchasePrice float64 `json:"averagePurchasePrice"`
	HighestSalesPrice    float64 `json:"highestSalesPrice"`
	LowestSalesPrice     float64 `json:"lowestSalesPrice"`
	TotalPackageSize     float64 `json:"totalPackageSize"`
	AverageProfitMargin  float64 `json:"averageProfitMargin"`
}

// EmployeeSummary aggregates a page of employees
type EmployeeSummary struct {
	Count                  int            `json:"count"`
	DepartmentDistribution map[string]int `json:"departmentDistribution"`
	JobDistribution        map[string]int `json:"jobDistribution"`
}

// Articles summarizes the given page. An empty page yields all zeros.
func Articles(articles []*models.Article) ArticleSummary {
	s := ArticleSummary{Count: len(articles)}
	if len(articles) == 0 {
		return s
	}

	var sales, purchase, margin float64
	s.HighestSalesPrice = math.Inf(-1)
	s.LowestSalesPrice = math.Inf(1)

	for _, a := range articles {
		sales += a.SalesPrice
		purchase += a.PurchasePrice
		margin += a.ProfitMargin()
		s.TotalInventoryValue += a.SalesPrice * a.PackageSize
		s.TotalPackageSize += a.PackageSize
		s.HighestSalesPrice = math.Max(s.HighestSalesPrice, a.SalesPrice)
		s.LowestSalesPrice = math.Min(s.LowestSalesPrice, a.SalesPrice)
	}

	n := float64(len(articles))
	s.TotalInventoryValue = models.Round2(s.TotalInventoryValue)
	s.AverageSalesPrice = models.Round2(sales / n)
	s.AveragePurchasePrice = models.Round2(purchase / n)
	s.AverageProfitMargin = models.Round2(margin / n)
	return s
}

// Employees summarizes the given page. An empty page yields empty distributions.
func Employees(employees []*models.Employee) EmployeeSummary {
	s := EmployeeSummary{
		Count:                  len(employees),
		DepartmentDistribution: make(map[string]int),
		JobDistribution:        make(map[string]int),
	}
	for _, e := range employees {
		s.DepartmentDistribution[label(e.Department)]++
		s.JobDistribution[label(e.Job)]++
	}
	return s
}

func label(v string) string {
	if v == "" {
		return Unassigned
	}
	return v
}
