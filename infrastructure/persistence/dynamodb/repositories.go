package dynamodb

import (
	"context"
	"fmt"
	"sort"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"

	"subscout/application/ports"
	"subscout/domain/core/entities"
	"subscout/domain/core/valueobjects"
	"subscout/domain/insights"
	pkgerrors "subscout/pkg/errors"
)

type userItem struct {
	Keys
	entities.User
}

type appItem struct {
	Keys
	entities.App
}

type subredditItem struct {
	Keys
	entities.Subreddit
}

type insightItem struct {
	Keys
	entities.Insight
}

type postItem struct {
	Keys
	entities.Post
}

type activityItem struct {
	Keys
	entities.Activity
}

func newAppItem(a *entities.App) appItem {
	return appItem{Keys: Keys{
		PK: entityPK("APP", a.ID), SK: metadataSK,
		GSI2PK: userPK(a.UserID), GSI2SK: sortKey("APP", a.CreatedAt, a.ID),
		EntityType: "APP",
	}, App: *a}
}

func newSubredditItem(s *entities.Subreddit) subredditItem {
	return subredditItem{Keys: Keys{
		PK: entityPK("SUBREDDIT", s.ID), SK: metadataSK,
		GSI1PK: entityPK("APP", s.AppID), GSI1SK: sortKey("SUBREDDIT", s.CreatedAt, s.ID),
		GSI2PK: userPK(s.UserID), GSI2SK: sortKey("SUBREDDIT", s.CreatedAt, s.ID),
		EntityType: "SUBREDDIT",
	}, Subreddit: *s}
}

func newInsightItem(in *entities.Insight) insightItem {
	keys := Keys{
		PK: entityPK("INSIGHT", in.ID), SK: metadataSK,
		GSI2PK: userPK(in.UserID), GSI2SK: sortKey("INSIGHT", in.CreatedAt, in.ID),
		EntityType: "INSIGHT",
	}
	if in.AppID != "" {
		keys.GSI1PK = entityPK("APP", in.AppID)
		keys.GSI1SK = sortKey("INSIGHT", in.CreatedAt, in.ID)
	}
	return insightItem{Keys: keys, Insight: *in}
}

func newPostItem(p *entities.Post) postItem {
	return postItem{Keys: Keys{
		PK: entityPK("POST", p.ID), SK: metadataSK,
		GSI2PK: userPK(p.UserID), GSI2SK: sortKey("POST", p.CreatedAt, p.ID),
		EntityType: "POST",
	}, Post: *p}
}

func newActivityItem(a *entities.Activity) activityItem {
	return activityItem{Keys: Keys{
		PK: entityPK("ACTIVITY", a.ID), SK: metadataSK,
		GSI2PK: userPK(a.UserID), GSI2SK: sortKey("ACTIVITY", a.CreatedAt, a.ID),
		EntityType: "ACTIVITY",
	}, Activity: *a}
}

// put writes item. When mustExist is set the write fails with NotFound
// unless the item is already stored; otherwise it must not exist yet.
func (t *table) put(ctx context.Context, item interface{}, resource string, mustExist bool) error {
	av, err := attributevalue.MarshalMap(item)
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", resource, err)
	}

	cond := expression.AttributeNotExists(expression.Name("PK"))
	if mustExist {
		cond = expression.AttributeExists(expression.Name("PK"))
	}
	expr, err := expression.NewBuilder().WithCondition(cond).Build()
	if err != nil {
		return err
	}

	_, err = t.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:                aws.String(t.name),
		Item:                     av,
		ConditionExpression:      expr.Condition(),
		ExpressionAttributeNames: expr.Names(),
	})
	if err != nil {
		if mustExist && isConditionFailure(err) {
			return pkgerrors.NewNotFoundError(resource)
		}
		return fmt.Errorf("failed to save %s: %w", resource, err)
	}
	return nil
}

func (t *table) get(ctx context.Context, pk, resource string, out interface{}) error {
	res, err := t.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(t.name),
		Key:       primaryKey(pk),
	})
	if err != nil {
		return fmt.Errorf("failed to get %s: %w", resource, err)
	}
	if err := notFoundIfMissing(res.Item, resource); err != nil {
		return err
	}
	return attributevalue.UnmarshalMap(res.Item, out)
}

// queryOptions describes an index range read
type queryOptions struct {
	index       string
	pk          string
	skPrefix    string
	filter      *expression.ConditionBuilder
	newestFirst bool
	limit       int
}

func (t *table) build(q queryOptions) (expression.Expression, error) {
	pkName, skName := q.index+"PK", q.index+"SK"
	kc := expression.Key(pkName).Equal(expression.Value(q.pk)).
		And(expression.Key(skName).BeginsWith(q.skPrefix))
	builder := expression.NewBuilder().WithKeyCondition(kc)
	if q.filter != nil {
		builder = builder.WithFilter(*q.filter)
	}
	return builder.Build()
}

// query visits matching items page by page, stopping after limit items
func (t *table) query(ctx context.Context, q queryOptions, visit func(map[string]types.AttributeValue) error) error {
	expr, err := t.build(q)
	if err != nil {
		return err
	}

	input := &dynamodb.QueryInput{
		TableName:                 aws.String(t.name),
		IndexName:                 aws.String(q.index),
		KeyConditionExpression:    expr.KeyCondition(),
		FilterExpression:          expr.Filter(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		ScanIndexForward:          aws.Bool(!q.newestFirst),
	}
	if q.limit > 0 && q.filter == nil {
		input.Limit = aws.Int32(int32(q.limit))
	}

	seen := 0
	paginator := dynamodb.NewQueryPaginator(t.client, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return fmt.Errorf("failed to query %s: %w", q.index, err)
		}
		for _, item := range page.Items {
			if q.limit > 0 && seen >= q.limit {
				return nil
			}
			if err := visit(item); err != nil {
				return err
			}
			seen++
		}
	}
	return nil
}

func (t *table) count(ctx context.Context, q queryOptions) (int, error) {
	expr, err := t.build(q)
	if err != nil {
		return 0, err
	}

	paginator := dynamodb.NewQueryPaginator(t.client, &dynamodb.QueryInput{
		TableName:                 aws.String(t.name),
		IndexName:                 aws.String(q.index),
		KeyConditionExpression:    expr.KeyCondition(),
		FilterExpression:          expr.Filter(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		Select:                    types.SelectCount,
	})

	total := 0
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return 0, fmt.Errorf("failed to count %s: %w", q.skPrefix, err)
		}
		total += int(page.Count)
	}
	return total, nil
}

func equals(name string, value interface{}) *expression.ConditionBuilder {
	cond := expression.Name(name).Equal(expression.Value(value))
	return &cond
}

// Users

type userRepo struct{ t *table }

func (r *userRepo) Upsert(ctx context.Context, user *entities.User) (*entities.User, error) {
	update := expression.Set(expression.Name("EntityType"), expression.Value("USER")).
		Set(expression.Name("ID"), expression.Value(user.ID)).
		Set(expression.Name("Email"), expression.Value(user.Email)).
		Set(expression.Name("FirstName"), expression.Value(user.FirstName)).
		Set(expression.Name("LastName"), expression.Value(user.LastName)).
		Set(expression.Name("ProfileImageURL"), expression.Value(user.ProfileImageURL)).
		Set(expression.Name("UpdatedAt"), expression.Value(user.UpdatedAt)).
		Set(expression.Name("CreatedAt"), expression.IfNotExists(expression.Name("CreatedAt"), expression.Value(user.CreatedAt)))

	expr, err := expression.NewBuilder().WithUpdate(update).Build()
	if err != nil {
		return nil, err
	}

	res, err := r.t.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.t.name),
		Key:                       primaryKey(userPK(user.ID)),
		UpdateExpression:          expr.Update(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		ReturnValues:              types.ReturnValueAllNew,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to upsert user: %w", err)
	}

	var item userItem
	if err := attributevalue.UnmarshalMap(res.Attributes, &item); err != nil {
		return nil, fmt.Errorf("failed to unmarshal user: %w", err)
	}
	return &item.User, nil
}

func (r *userRepo) GetByID(ctx context.Context, id string) (*entities.User, error) {
	var item userItem
	if err := r.t.get(ctx, userPK(id), "user", &item); err != nil {
		return nil, err
	}
	return &item.User, nil
}

// Apps

type appRepo struct{ t *table }

func (r *appRepo) Create(ctx context.Context, app *entities.App) error {
	return r.t.put(ctx, newAppItem(app), "app", false)
}

func (r *appRepo) GetByID(ctx context.Context, id string) (*entities.App, error) {
	var item appItem
	if err := r.t.get(ctx, entityPK("APP", id), "app", &item); err != nil {
		return nil, err
	}
	return &item.App, nil
}

func (r *appRepo) ListByUser(ctx context.Context, userID string) ([]*entities.App, error) {
	apps := []*entities.App{}
	err := r.t.query(ctx, queryOptions{index: gsi2, pk: userPK(userID), skPrefix: "APP#", newestFirst: true},
		func(av map[string]types.AttributeValue) error {
			var item appItem
			if err := attributevalue.UnmarshalMap(av, &item); err != nil {
				return err
			}
			apps = append(apps, &item.App)
			return nil
		})
	return apps, err
}

// Subreddits

type subredditRepo struct{ t *table }

func (r *subredditRepo) Create(ctx context.Context, sub *entities.Subreddit) error {
	return r.t.put(ctx, newSubredditItem(sub), "subreddit", false)
}

func (r *subredditRepo) GetByID(ctx context.Context, id string) (*entities.Subreddit, error) {
	var item subredditItem
	if err := r.t.get(ctx, entityPK("SUBREDDIT", id), "subreddit", &item); err != nil {
		return nil, err
	}
	return &item.Subreddit, nil
}

func (r *subredditRepo) ListByApp(ctx context.Context, appID string) ([]*entities.Subreddit, error) {
	subs := []*entities.Subreddit{}
	err := r.t.query(ctx, queryOptions{index: gsi1, pk: entityPK("APP", appID), skPrefix: "SUBREDDIT#"},
		func(av map[string]types.AttributeValue) error {
			var item subredditItem
			if err := attributevalue.UnmarshalMap(av, &item); err != nil {
				return err
			}
			subs = append(subs, &item.Subreddit)
			return nil
		})
	if err != nil {
		return nil, err
	}

	sort.SliceStable(subs, func(i, j int) bool {
		if subs[i].MatchScore != subs[j].MatchScore {
			return subs[i].MatchScore > subs[j].MatchScore
		}
		return subs[i].Name < subs[j].Name
	})
	return subs, nil
}

func (r *subredditRepo) Update(ctx context.Context, sub *entities.Subreddit) error {
	return r.t.put(ctx, newSubredditItem(sub), "subreddit", true)
}

func (r *subredditRepo) CountMonitored(ctx context.Context, userID string) (int, error) {
	return r.t.count(ctx, queryOptions{index: gsi2, pk: userPK(userID), skPrefix: "SUBREDDIT#", filter: equals("IsMonitored", true)})
}

// Insights

type insightRepo struct{ t *table }

// SaveBatch writes the batch as one transaction. The scanned-at stamp goes
// first so a missing subreddit cancels everything with NotFound.
func (r *insightRepo) SaveBatch(ctx context.Context, batch ports.InsightBatch) error {
	items := make([]types.TransactWriteItem, 0, len(batch.Insights)+2)

	if batch.ScannedSubredditID != "" {
		expr, err := expression.NewBuilder().
			WithUpdate(expression.Set(expression.Name("LastScanned"), expression.Value(batch.ScannedAt.UTC()))).
			WithCondition(expression.AttributeExists(expression.Name("PK"))).
			Build()
		if err != nil {
			return err
		}
		items = append(items, types.TransactWriteItem{Update: &types.Update{
			TableName:                 aws.String(r.t.name),
			Key:                       primaryKey(entityPK("SUBREDDIT", batch.ScannedSubredditID)),
			UpdateExpression:          expr.Update(),
			ConditionExpression:       expr.Condition(),
			ExpressionAttributeNames:  expr.Names(),
			ExpressionAttributeValues: expr.Values(),
		}})
	}

	for _, in := range batch.Insights {
		av, err := attributevalue.MarshalMap(newInsightItem(in))
		if err != nil {
			return fmt.Errorf("failed to marshal insight: %w", err)
		}
		items = append(items, types.TransactWriteItem{Put: &types.Put{TableName: aws.String(r.t.name), Item: av}})
	}

	if batch.Activity != nil {
		av, err := attributevalue.MarshalMap(newActivityItem(batch.Activity))
		if err != nil {
			return fmt.Errorf("failed to marshal activity: %w", err)
		}
		items = append(items, types.TransactWriteItem{Put: &types.Put{TableName: aws.String(r.t.name), Item: av}})
	}

	if len(items) == 0 {
		return nil
	}
	if len(items) > maxTransactItems {
		return fmt.Errorf("insight batch of %d writes exceeds the %d item transaction limit", len(items), maxTransactItems)
	}

	_, err := r.t.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{TransactItems: items})
	if err != nil {
		if batch.ScannedSubredditID != "" && cancelledByCondition(err, 0) {
			return pkgerrors.NewNotFoundError("subreddit")
		}
		r.t.logger.Error("Failed to write insight batch",
			zap.Int("insights", len(batch.Insights)),
			zap.Error(err),
		)
		return fmt.Errorf("failed to save insight batch: %w", err)
	}
	return nil
}

func (r *insightRepo) ListByApp(ctx context.Context, appID string) ([]*entities.Insight, error) {
	return r.list(ctx, queryOptions{index: gsi1, pk: entityPK("APP", appID), skPrefix: "INSIGHT#", newestFirst: true})
}

func (r *insightRepo) ListRecent(ctx context.Context, userID string, limit int) ([]*entities.Insight, error) {
	return r.list(ctx, queryOptions{index: gsi2, pk: userPK(userID), skPrefix: "INSIGHT#", newestFirst: true, limit: limit})
}

func (r *insightRepo) list(ctx context.Context, q queryOptions) ([]*entities.Insight, error) {
	out := []*entities.Insight{}
	err := r.t.query(ctx, q, func(av map[string]types.AttributeValue) error {
		var item insightItem
		if err := attributevalue.UnmarshalMap(av, &item); err != nil {
			return err
		}
		out = append(out, &item.Insight)
		return nil
	})
	return out, err
}

// CountTitles reads the user's insights of type t oldest first and groups
// them by exact title. Ties keep the order the title first appeared in.
// DynamoDB cannot aggregate, so every item is read and the limit only trims
// the result.
func (r *insightRepo) CountTitles(ctx context.Context, userID string, t valueobjects.InsightType, limit int) ([]insights.TitleCount, error) {
	index := map[string]int{}
	groups := []insights.TitleCount{}

	err := r.t.query(ctx, queryOptions{index: gsi2, pk: userPK(userID), skPrefix: "INSIGHT#", filter: equals("Type", string(t))},
		func(av map[string]types.AttributeValue) error {
			var item insightItem
			if err := attributevalue.UnmarshalMap(av, &item); err != nil {
				return err
			}
			if i, ok := index[item.Title]; ok {
				groups[i].Count++
				return nil
			}
			index[item.Title] = len(groups)
			groups = append(groups, insights.TitleCount{Title: item.Title, Count: 1})
			return nil
		})
	if err != nil {
		return nil, err
	}

	sort.SliceStable(groups, func(i, j int) bool { return groups[i].Count > groups[j].Count })
	if limit >= 0 && len(groups) > limit {
		groups = groups[:limit]
	}
	return groups, nil
}

func (r *insightRepo) CountByType(ctx context.Context, userID string, t valueobjects.InsightType) (int, error) {
	return r.t.count(ctx, queryOptions{index: gsi2, pk: userPK(userID), skPrefix: "INSIGHT#", filter: equals("Type", string(t))})
}

// Posts

type postRepo struct{ t *table }

func (r *postRepo) Create(ctx context.Context, post *entities.Post) error {
	return r.t.put(ctx, newPostItem(post), "post", false)
}

func (r *postRepo) GetByID(ctx context.Context, id string) (*entities.Post, error) {
	var item postItem
	if err := r.t.get(ctx, entityPK("POST", id), "post", &item); err != nil {
		return nil, err
	}
	return &item.Post, nil
}

func (r *postRepo) Update(ctx context.Context, post *entities.Post) error {
	return r.t.put(ctx, newPostItem(post), "post", true)
}

func (r *postRepo) List(ctx context.Context, filter ports.PostFilter) ([]*entities.Post, error) {
	q := queryOptions{index: gsi2, pk: userPK(filter.UserID), skPrefix: "POST#", newestFirst: true}
	if filter.Status != nil {
		q.filter = equals("Status", string(*filter.Status))
	}

	posts := []*entities.Post{}
	err := r.t.query(ctx, q, func(av map[string]types.AttributeValue) error {
		var item postItem
		if err := attributevalue.UnmarshalMap(av, &item); err != nil {
			return err
		}
		posts = append(posts, &item.Post)
		return nil
	})
	return posts, err
}

func (r *postRepo) CountByStatus(ctx context.Context, userID string, status valueobjects.PostStatus) (int, error) {
	return r.t.count(ctx, queryOptions{index: gsi2, pk: userPK(userID), skPrefix: "POST#", filter: equals("Status", string(status))})
}

// Activities

type activityRepo struct{ t *table }

func (r *activityRepo) Create(ctx context.Context, activity *entities.Activity) error {
	return r.t.put(ctx, newActivityItem(activity), "activity", false)
}

func (r *activityRepo) ListRecent(ctx context.Context, userID string, limit int) ([]*entities.Activity, error) {
	out := []*entities.Activity{}
	err := r.t.query(ctx, queryOptions{index: gsi2, pk: userPK(userID), skPrefix: "ACTIVITY#", newestFirst: true, limit: limit},
		func(av map[string]types.AttributeValue) error {
			var item activityItem
			if err := attributevalue.UnmarshalMap(av, &item); err != nil {
				return err
			}
			if item.Metadata == nil {
				item.Metadata = map[string]interface{}{}
			}
			out = append(out, &item.Activity)
			return nil
		})
	return out, err
}
