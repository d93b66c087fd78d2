package models

import (
	"encoding/json"
	"strings"
)

// Period is the billing granularity of an item's price.
type Period string

const (
	PeriodHour  Period = "hour"
	PeriodDay   Period = "day"
	PeriodWeek  Period = "week"
	PeriodMonth Period = "month"
)

var periodAliases = map[string]Period{
	"hour":   PeriodHour,
	"час":    PeriodHour,
	"day":    PeriodDay,
	"день":   PeriodDay,
	"week":   PeriodWeek,
	"неделя": PeriodWeek,
	"month":  PeriodMonth,
	"месяц":  PeriodMonth,
}

var periodLabels = map[Period]string{
	PeriodHour:  "час",
	PeriodDay:   "день",
	PeriodWeek:  "неделя",
	PeriodMonth: "месяц",
}

// ParsePeriod normalises both the English enum and the Russian labels the
// backend stores. Unknown values are kept verbatim.
func ParsePeriod(s string) Period {
	s = strings.ToLower(strings.TrimSpace(s))
	if p, ok := periodAliases[s]; ok {
		return p
	}
	return Period(s)
}

func (p Period) Valid() bool {
	_, ok := periodLabels[p]
	return ok
}

func (p Period) Label() string {
	if l, ok := periodLabels[p]; ok {
		return l
	}
	return string(p)
}

func (p *Period) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*p = ParsePeriod(s)
	return nil
}

func (p *Period) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	*p = ParsePeriod(s)
	return nil
}

// Condition describes the wear of a listed item.
type Condition string

const (
	ConditionLikeNew   Condition = "like-new"
	ConditionExcellent Condition = "excellent"
	ConditionGood      Condition = "good"
	ConditionFair      Condition = "fair"
)

var conditionAliases = map[string]Condition{
	"like-new":           ConditionLikeNew,
	"как новое":          ConditionLikeNew,
	"excellent":          ConditionExcellent,
	"отличное":           ConditionExcellent,
	"good":               ConditionGood,
	"хорошее":            ConditionGood,
	"fair":               ConditionFair,
	"удовлетворительное": ConditionFair,
}

var conditionLabels = map[Condition]string{
	ConditionLikeNew:   "Как новое",
	ConditionExcellent: "Отличное",
	ConditionGood:      "Хорошее",
	ConditionFair:      "Удовлетворительное",
}

func ParseCondition(s string) Condition {
	key := strings.ToLower(strings.TrimSpace(s))
	if c, ok := conditionAliases[key]; ok {
		return c
	}
	return Condition(strings.TrimSpace(s))
}

func (c Condition) Valid() bool {
	_, ok := conditionLabels[c]
	return ok
}

func (c Condition) Label() string {
	if l, ok := conditionLabels[c]; ok {
		return l
	}
	return string(c)
}

func (c *Condition) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*c = ParseCondition(s)
	return nil
}

func (c *Condition) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	*c = ParseCondition(s)
	return nil
}

type Item struct {
	ID           int64     `json:"id" yaml:"id"`
	Title        string    `json:"title" yaml:"title"`
	Description  string    `json:"description,omitempty" yaml:"description"`
	CategoryID   string    `json:"category_id" yaml:"category_id"`
	Price        Money     `json:"price" yaml:"price"`
	Period       Period    `json:"period" yaml:"period"`
	Location     string    `json:"location" yaml:"location"`
	Rating       Decimal   `json:"rating" yaml:"rating"`
	ReviewsCount int       `json:"reviews_count" yaml:"reviews_count"`
	ImageURL     string    `json:"image_url" yaml:"image_url"`
	Owner        string    `json:"owner" yaml:"owner"`
	OwnerRating  *Decimal  `json:"owner_rating,omitempty" yaml:"owner_rating"`
	OwnerReviews *int      `json:"owner_reviews,omitempty" yaml:"owner_reviews"`
	Condition    Condition `json:"condition" yaml:"condition"`
	Features     []string  `json:"features,omitempty" yaml:"features"`
	Rules        []string  `json:"rules,omitempty" yaml:"rules"`
}

// Listing is the payload of a create-listing request.
type Listing struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	CategoryID  string    `json:"category_id"`
	Price       int64     `json:"price"`
	Period      Period    `json:"period"`
	Location    string    `json:"location"`
	Condition   Condition `json:"condition"`
	ImageURL    string    `json:"image_url"`
	Features    []string  `json:"features"`
	Rules       []string  `json:"rules"`
}

// ItemsSource tells where a catalog listing came from.
type ItemsSource string

const (
	ItemsSourceRemote   ItemsSource = "remote"
	ItemsSourceCache    ItemsSource = "cache"
	ItemsSourceFallback ItemsSource = "fallback"
)

// ItemsResult keeps "service returned nothing" apart from "service failed,
// showing the built-in sample": the latter has Source fallback and a Cause.
type ItemsResult struct {
	Items  []Item
	Source ItemsSource
	Cause  error
}

func (r *ItemsResult) Degraded() bool {
	return r != nil && r.Source == ItemsSourceFallback
}
