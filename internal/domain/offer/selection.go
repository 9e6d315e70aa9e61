// Package offer selecciona la mejor oferta viva de un producto.
package offer

import (
	"github.com/jhoicas/pharma-ledger/internal/domain/entity"
)

// better indica si a gana sobre b: mayor descuento de venta, luego la más antigua, luego el id.
func better(a, b *entity.Offer) bool {
	if c := a.SellingDiscountPercentage.Cmp(b.SellingDiscountPercentage); c != 0 {
		return c > 0
	}
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.Before(b.CreatedAt)
	}
	return a.ID < b.ID
}

// SelectMax devuelve la mejor oferta con unidades restantes, o nil si no hay ninguna.
func SelectMax(offers []*entity.Offer) *entity.Offer {
	var best *entity.Offer
	for _, o := range offers {
		if !o.Live() {
			continue
		}
		if best == nil || better(o, best) {
			best = o
		}
	}
	return best
}

// Result resultado de recalcular la bandera IsMax.
type Result struct {
	Prev    *entity.Offer   // máxima anterior (nil si no había)
	Next    *entity.Offer   // nueva máxima (nil si no queda ninguna viva)
	Changed []*entity.Offer // ofertas cuya bandera cambió y deben persistirse
}

// MaxChanged indica si la mejor oferta del producto es otra.
func (r Result) MaxChanged() bool {
	return offerID(r.Prev) != offerID(r.Next)
}

// Recompute marca como máxima a la mejor oferta viva y desmarca al resto.
func Recompute(offers []*entity.Offer) Result {
	var res Result
	for _, o := range offers {
		if o.IsMax && res.Prev == nil {
			res.Prev = o
		}
	}
	res.Next = SelectMax(offers)
	for _, o := range offers {
		want := o == res.Next
		if o.IsMax != want {
			o.IsMax = want
			res.Changed = append(res.Changed, o)
		}
	}
	return res
}

func offerID(o *entity.Offer) string {
	if o == nil {
		return ""
	}
	return o.ID
}
