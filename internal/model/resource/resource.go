package resource

// Category 资源分类。
type Category string

const (
	CategoryMeditation Category = "meditation"
	CategoryArticle    Category = "article"
	CategoryHotline    Category = "hotline"
)

// Resource is a static self-help entry shown in the resource library.
type Resource struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Category    Category `json:"category"`
	Link        string   `json:"link,omitempty"`
}

// CrisisHotline 全国心理危机干预热线。
const CrisisHotline = "400-161-9995"

// Seed provides the built-in resource library.
func Seed() []Resource {
	return []Resource{
		{
			ID:          "1",
			Title:       "中国心理危机干预热线",
			Description: "24小时免费心理咨询与危机干预服务。",
			Category:    CategoryHotline,
			Link:        "tel:" + CrisisHotline,
		},
		{
			ID:          "2",
			Title:       "5分钟正念冥想",
			Description: "快速缓解焦虑，回归当下平静。",
			Category:    CategoryMeditation,
		},
		{
			ID:          "3",
			Title:       "认识CBT疗法",
			Description: "了解认知行为疗法如何帮助你管理情绪。",
			Category:    CategoryArticle,
		},
		{
			ID:          "4",
			Title:       "深呼吸练习",
			Description: "跟着节奏呼吸，降低心率。",
			Category:    CategoryMeditation,
		},
	}
}
