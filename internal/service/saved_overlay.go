package service

// 收藏覆盖层：在不修改房源数据的前提下，为每个列表项标注当前
// 浏览者是否已收藏。收藏集合一次取出后做内存映射，避免逐条查询。

// overlaySaved 为一页概要附加 isSaved 标记。viewerID 为零时全部为 false。
func (s *ArticleService) overlaySaved(items []ArticleSummary, viewerID uint) {
	if viewerID == 0 || len(items) == 0 {
		return
	}

	saved := s.savedArticleIDs(viewerID)
	if len(saved) == 0 {
		return
	}
	for i := range items {
		_, ok := saved[items[i].ID]
		items[i].IsSaved = ok
	}
}

// savedArticleIDs 返回浏览者收藏的房源 ID 集合。
// 查询失败（如账号已删除）时按空集处理，不让列表请求整体失败。
func (s *ArticleService) savedArticleIDs(viewerID uint) map[uint]struct{} {
	set := make(map[uint]struct{})
	if viewerID == 0 {
		return set
	}

	var ids []uint
	if err := s.db.Table("user_saved_articles").
		Where("user_id = ?", viewerID).
		Pluck("article_id", &ids).Error; err != nil {
		return set
	}

	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}

func (s *ArticleService) isSaved(viewerID, articleID uint) bool {
	if viewerID == 0 {
		return false
	}
	_, ok := s.savedArticleIDs(viewerID)[articleID]
	return ok
}
