package twitch

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

type graphqlQueryObject struct {
	Name      string `json:"operationName"`
	Variables any    `json:"variables"`
	Query     string `json:"query"`
}

type graphqlError struct {
	Message string `json:"message"`
}

type graphqlQueryResult[Data any] struct {
	Data   Data           `json:"data"`
	Errors []graphqlError `json:"errors"`
}

func graphqlQuery[Input, Output any](
	ctx context.Context,
	client *resty.Client,
	name,
	query string,
	variables Input,
) (Output, error) {
	ctx, span := tracer.Start(ctx, fmt.Sprintf("graphql:%s", name))
	defer span.End()

	span.SetAttributes(attribute.KeyValue{
		Key:   "custom.name",
		Value: attribute.StringValue(name),
	})

	var defaultOut Output

	body, err := json.Marshal(graphqlQueryObject{
		Name:      name,
		Query:     query,
		Variables: variables,
	})
	if err != nil {
		span.SetStatus(codes.Error, "failed to serialize json query")
		return defaultOut, err
	}

	res, err := client.R().
		SetContext(ctx).
		SetHeader("content-type", "application/json").
		SetBody(body).
		Post("/gql")
	if err != nil {
		span.SetStatus(codes.Error, "failed to fetch")
		return defaultOut, err
	}
	if res.StatusCode() >= 300 {
		err := fmt.Errorf("HTTP %d", res.StatusCode())
		span.SetStatus(codes.Error, "non-2xx response")
		return defaultOut, err
	}

	var result graphqlQueryResult[Output]
	err = json.Unmarshal(res.Body(), &result)
	if err != nil {
		span.SetStatus(codes.Error, "failed to parse json response")
		return defaultOut, err
	}
	// a 200 with an errors array is still a failure, the data half is
	// not trustworthy when it is present
	if len(result.Errors) > 0 {
		err := fmt.Errorf("graphql: %s", result.Errors[0].Message)
		span.SetStatus(codes.Error, "graphql errors in response")
		return defaultOut, err
	}

	return result.Data, nil
}
