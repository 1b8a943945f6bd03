package seed

import (
	"fmt"
	"math/rand"
	"strings"

	"github.com/records-api/internal/models"
)

type category struct {
	name     string
	items    []string
	units    []string
	minPrice float64
	maxPrice float64
}

var categories = []category{
	{"Electronics", []string{"Smartphone", "Laptop", "Tablet", "Monitor", "Keyboard", "Mouse", "Headphones", "Router", "Charger", "SSD", "Webcam"}, []string{"pcs", "set"}, 15, 2500},
	{"Office Supplies", []string{"Pen", "Pencil", "Notebook", "Binder", "Paper", "Stapler", "Marker", "Folder", "Envelope", "Sticky Notes", "Toner"}, []string{"pcs", "pack", "box", "dozen"}, 1, 150},
	{"Home & Garden", []string{"Sofa", "Chair", "Table", "Lamp", "Curtain", "Rug", "Pillow", "Vase", "Hose", "Watering Can"}, []string{"pcs", "set", "pack"}, 10, 1200},
	{"Sports & Recreation", []string{"Basketball", "Tennis Racket", "Helmet", "Sneakers", "Water Bottle", "Yoga Mat", "Dumbbell", "Jump Rope"}, []string{"pcs", "set", "pair"}, 8, 800},
	{"Automotive", []string{"Tire", "Battery", "Oil Filter", "Spark Plug", "Brake Pad", "Wiper Blade", "Floor Mat", "Tool Kit"}, []string{"pcs", "set", "pair"}, 15, 500},
	{"Health & Beauty", []string{"Shampoo", "Soap", "Toothpaste", "Moisturizer", "Sunscreen", "Vitamins", "Thermometer"}, []string{"pcs", "ml", "g", "oz"}, 3, 120},
	{"Food & Beverage", []string{"Coffee", "Tea", "Sugar", "Pasta", "Rice", "Flour", "Juice", "Sauce"}, []string{"g", "kg", "ml", "l", "oz", "lb"}, 1, 50},
	{"Tools & Hardware", []string{"Hammer", "Screwdriver", "Wrench", "Drill", "Saw", "Screws", "Nails", "Light Bulb", "Paint"}, []string{"pcs", "set", "pack", "box"}, 5, 400},
}

var brands = []string{
	"TechPro", "EliteMax", "ProForce", "UltraCore", "MaxPower", "PrimeTech",
	"NextGen", "MegaTech", "AlphaTech", "OmegaTech", "ZenithPro", "NovaPro",
}

var adjectives = []string{
	"Premium", "Professional", "Advanced", "Standard", "Basic", "Deluxe",
	"Heavy Duty", "Portable", "Wireless", "Smart", "Compact", "Eco Friendly",
}

// package size range per unit
var packageSizes = map[string][2]float64{
	"ml": {50, 1000}, "l": {1, 5},
	"g": {10, 5000}, "kg": {1, 50}, "lb": {1, 100}, "oz": {1, 64},
	"pcs": {1, 100}, "set": {1, 20}, "box": {1, 50}, "pack": {1, 25}, "dozen": {1, 10}, "pair": {1, 5},
}

var firstNames = []string{
	"James", "Mary", "Robert", "Patricia", "John", "Jennifer", "Michael", "Linda",
	"David", "Elizabeth", "William", "Barbara", "Aisha", "Chen", "Priya", "Mateo",
}

var lastNames = []string{
	"Smith", "Johnson", "Williams", "Brown", "Jones", "Garcia", "Miller", "Davis",
	"Martinez", "Lopez", "Wilson", "Anderson", "Nguyen", "Patel", "Kim", "Okafor",
}

var jobs = []string{
	"Software Engineer", "Frontend Developer", "Marketing Manager", "Sales Representative",
	"HR Manager", "Accountant", "Operations Manager", "Support Specialist", "IT Specialist",
	"Legal Counsel", "Research Analyst", "QA Tester",
}

// Generator produces plausible employee and article inputs
type Generator struct {
	rnd *rand.Rand
}

// NewGenerator creates a generator; equal seeds give equal sequences
func NewGenerator(seed int64) *Generator {
	return &Generator{rnd: rand.New(rand.NewSource(seed))}
}

func (g *Generator) pick(values []string) string {
	return values[g.rnd.Intn(len(values))]
}

func (g *Generator) between(min, max float64) float64 {
	return min + g.rnd.Float64()*(max-min)
}

// Article generates an article with the given number
func (g *Generator) Article(number int64) *models.ArticleInput {
	c := categories[g.rnd.Intn(len(categories))]
	item := g.pick(c.items)
	unit := g.pick(c.units)

	parts := []string{g.pick(brands)}
	if g.rnd.Intn(2) == 0 {
		parts = append(parts, g.pick(adjectives))
	}
	parts = append(parts, item)
	if g.rnd.Intn(10) >= 7 {
		parts = append(parts, fmt.Sprint(100+g.rnd.Intn(9900)))
	}

	size := packageSizes[unit]
	purchase := g.between(c.minPrice, c.maxPrice*0.6)
	in := &models.ArticleInput{
		ArticleNumber: number,
		ArticleName:   strings.Join(parts, " "),
		Unit:          unit,
		PackageSize:   float64(int(g.between(size[0], size[1]+1))),
		PurchasePrice: purchase,
		// retail markup between 40% and 120%
		SalesPrice: purchase * g.between(1.4, 2.2),
	}
	in.Normalize()
	return in
}

// Employee generates an employee; seq keeps the email unique within a run
func (g *Generator) Employee(seq int) *models.EmployeeInput {
	first := g.pick(firstNames)
	last := g.pick(lastNames)
	in := &models.EmployeeInput{
		Name:  first + " " + last,
		Email: fmt.Sprintf("%s.%s.%d@example.com", strings.ToLower(first), strings.ToLower(last), seq),
		Phone: fmt.Sprintf("+1 (555) %03d-%04d", g.rnd.Intn(1000), g.rnd.Intn(10000)),
		Job:   g.pick(jobs),
	}
	in.Normalize()
	return in
}
