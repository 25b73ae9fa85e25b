package aggregate

import (
	"sort"

	"github.com/hakim/tlsgrind/internal/models"
)

// ProductGroup lists the hosts of one product affected by an attack
type ProductGroup struct {
	Product  string   `json:"product"`
	IPs      []string `json:"ips"`
	Quantity int      `json:"quantity"`
}

// VendorGroup holds a vendor's affected products, most affected first
type VendorGroup struct {
	Vendor   string         `json:"vendor"`
	Products []ProductGroup `json:"products"`
}

// Total sums every product of the vendor: all ip lists concatenated in
// product order and the quantities added up.
func (v VendorGroup) Total() ProductGroup {
	total := ProductGroup{IPs: []string{}}
	for _, p := range v.Products {
		total.IPs = append(total.IPs, p.IPs...)
		total.Quantity += p.Quantity
	}
	return total
}

// AttackGroup is the vendor breakdown of one attack
type AttackGroup struct {
	Attack  string        `json:"attack"`
	Vendors []VendorGroup `json:"vendors"`
}

// GroupedReport is ordered like the attack frequency table it was built from
type GroupedReport []AttackGroup

// Group builds the attack -> vendor -> product breakdown.
//
// Attacks follow the order of the attacks table. Vendors are sorted by name.
// Products are sorted by quantity descending, ties by product name. Each
// product's "ip:port" list follows ascending ip order.
func Group(hosts models.HostMap, attacks FrequencyTable) GroupedReport {
	ips := hosts.IPs()
	report := make(GroupedReport, 0, len(attacks))

	for _, entry := range attacks {
		// vendor -> product -> addresses
		byVendor := make(map[string]map[string][]string)
		for _, ip := range ips {
			host := hosts[ip]
			if !host.Attacks.Has(entry.Name) {
				continue
			}
			products, ok := byVendor[host.Vendor]
			if !ok {
				products = make(map[string][]string)
				byVendor[host.Vendor] = products
			}
			key := models.HostKey{IP: ip, Port: host.Port}
			products[host.Product] = append(products[host.Product], key.Address())
		}

		vendors := make([]string, 0, len(byVendor))
		for v := range byVendor {
			vendors = append(vendors, v)
		}
		sort.Strings(vendors)

		group := AttackGroup{Attack: entry.Name, Vendors: make([]VendorGroup, 0, len(vendors))}
		for _, vendor := range vendors {
			vg := VendorGroup{Vendor: vendor}
			for product, addrs := range byVendor[vendor] {
				vg.Products = append(vg.Products, ProductGroup{
					Product:  product,
					IPs:      addrs,
					Quantity: len(addrs),
				})
			}
			sort.Slice(vg.Products, func(i, j int) bool {
				if vg.Products[i].Quantity != vg.Products[j].Quantity {
					return vg.Products[i].Quantity > vg.Products[j].Quantity
				}
				return vg.Products[i].Product < vg.Products[j].Product
			})
			group.Vendors = append(group.Vendors, vg)
		}
		report = append(report, group)
	}

	return report
}

// Quantity returns the number of affected hosts recorded for the attack
func (g AttackGroup) Quantity() int {
	n := 0
	for _, v := range g.Vendors {
		n += v.Total().Quantity
	}
	return n
}
