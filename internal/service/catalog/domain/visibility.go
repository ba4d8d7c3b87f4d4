package domain

// IsPubliclyVisible 商品是否对顾客可见（也即可购买）。
// 所有公开列表、店铺页、商品详情以及下单都使用这一个判断，
// SQL 侧的过滤条件由同一组常量生成。
func IsPubliclyVisible(p *Product, s *Store) bool {
	if p == nil || s == nil || p.StoreID != s.ID {
		return false
	}
	return p.Status == ReviewApproved &&
		p.StockQuantity > 0 &&
		s.Status == StoreStatusApproved &&
		s.IsActive
}
