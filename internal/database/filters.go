package database

import (
	"regexp"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/AmrIbrahim41/smart-shop/internal/models"
)

// ProductFilter turns a catalog query into a mongo filter. The keyword is a
// case-insensitive substring match OR-ed across name, description, brand and
// the ids of categories whose name matched; category and approval are AND-ed.
func ProductFilter(q models.ProductQuery) bson.M {
	filter := bson.M{}

	if keyword := strings.TrimSpace(q.Keyword); keyword != "" {
		pattern := primitive.Regex{Pattern: regexp.QuoteMeta(keyword), Options: "i"}
		or := bson.A{
			bson.M{"name": pattern},
			bson.M{"description": pattern},
			bson.M{"brand": pattern},
		}
		if len(q.KeywordCategoryIDs) > 0 {
			or = append(or, bson.M{"categoryId": bson.M{"$in": q.KeywordCategoryIDs}})
		}
		filter["$or"] = or
	}

	if q.CategoryID != nil {
		filter["categoryId"] = *q.CategoryID
	}
	if q.ApprovedOnly {
		filter["approvalStatus"] = models.ApprovalApproved
	}

	return filter
}

func nameLike(keyword string) primitive.Regex {
	return primitive.Regex{Pattern: regexp.QuoteMeta(strings.TrimSpace(keyword)), Options: "i"}
}
