package factories

import (
	"math"
	"math/rand"
	"strings"
	"time"

	"github.com/chrisdamba/wooinsights/internal/models"
	"github.com/jaswdr/faker"
	"github.com/shopspring/decimal"
)

const (
	catalogSize    = 40
	categoryCount  = 8
	guestOrderRate = 0.05
)

// order status mix of a typical store
var statusWeights = []struct {
	status string
	weight float64
}{
	{"completed", 0.70},
	{"processing", 0.12},
	{"on-hold", 0.05},
	{"pending", 0.04},
	{"cancelled", 0.05},
	{"refunded", 0.04},
}

type product struct {
	id         int64
	name       string
	price      decimal.Decimal
	categories []models.Category
}

// OrderFactory builds plausible WooCommerce orders from a fixed seed. Two
// factories with the same seed produce the same catalog and order stream.
type OrderFactory struct {
	fake      faker.Faker
	rnd       *rand.Rand
	customers int
	catalog   []product
}

func NewOrderFactory(seed int64, customers int) *OrderFactory {
	if customers < 1 {
		customers = 1
	}
	of := &OrderFactory{
		fake:      faker.NewWithSeed(rand.NewSource(seed)),
		rnd:       rand.New(rand.NewSource(seed)),
		customers: customers,
	}
	of.catalog = of.createCatalog()
	return of
}

func (of *OrderFactory) createCatalog() []product {
	categories := make([]models.Category, categoryCount)
	for i := range categories {
		categories[i] = models.Category{ID: int64(100 + i), Name: titleCase(of.fake.Lorem().Word())}
	}

	catalog := make([]product, catalogSize)
	for i := range catalog {
		p := product{
			id:    int64(1000 + i),
			name:  titleCase(of.fake.Lorem().Word() + " " + of.fake.Lorem().Word()),
			price: decimal.NewFromFloat(of.fake.Float64(2, 3, 120)).Round(2),
		}
		// most products sit in one category, some in two
		p.categories = append(p.categories, categories[of.rnd.Intn(len(categories))])
		if of.rnd.Float64() < 0.3 {
			second := categories[of.rnd.Intn(len(categories))]
			if second.ID != p.categories[0].ID {
				p.categories = append(p.categories, second)
			}
		}
		catalog[i] = p
	}
	return catalog
}

// CreateOrder returns an order with the given id placed at created.
func (of *OrderFactory) CreateOrder(id int64, created time.Time) models.Order {
	items := make([]models.LineItem, of.fake.IntBetween(1, 4))
	total := decimal.Zero
	for i := range items {
		p := of.pickProduct()
		qty := of.fake.IntBetween(1, 3)
		lineTotal := p.price.Mul(decimal.NewFromInt(int64(qty)))
		total = total.Add(lineTotal)
		items[i] = models.LineItem{
			ProductID:  p.id,
			Name:       p.name,
			Quantity:   qty,
			Total:      models.AmountOf(lineTotal),
			Categories: p.categories,
		}
	}

	return models.Order{
		ID:             id,
		CustomerID:     of.pickCustomer(),
		DateCreated:    models.NewTimestamp(created),
		DateCreatedGMT: models.NewTimestamp(created.UTC()),
		Total:          models.AmountOf(total),
		Status:         of.pickStatus(),
		LineItems:      items,
	}
}

// pickProduct favours the front of the catalog so top-N rankings are stable.
func (of *OrderFactory) pickProduct() product {
	idx := int(math.Pow(of.rnd.Float64(), 2) * float64(len(of.catalog)))
	return of.catalog[min(idx, len(of.catalog)-1)]
}

// pickCustomer skews towards low ids so a share of customers repeat. Id 0 is
// a guest checkout.
func (of *OrderFactory) pickCustomer() int64 {
	if of.rnd.Float64() < guestOrderRate {
		return 0
	}
	idx := int(math.Pow(of.rnd.Float64(), 1.5) * float64(of.customers))
	return int64(min(idx, of.customers-1) + 1)
}

func (of *OrderFactory) pickStatus() string {
	r := of.rnd.Float64()
	for _, sw := range statusWeights {
		if r < sw.weight {
			return sw.status
		}
		r -= sw.weight
	}
	return statusWeights[0].status
}

func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
