package tools

import (
	"context"
	"fmt"
	"time"

	"github.com/shophub-ai/assistant"
	"github.com/shophub-ai/assistant/internal/shop"
)

// deliveryDays maps a shipping region to a business-day estimate. Unknown
// regions get the default.
var deliveryDays = map[string]int{
	"west":    2,
	"east":    3,
	"central": 4,
}

const defaultDeliveryDays = 5

// Setup creates the full tool catalog backed by the given shop client.
func Setup(client *shop.Client) map[string]assistant.Tool {
	return map[string]assistant.Tool{
		"search_products": NewFuncTool(
			"search_products",
			searchProducts(client),
			WithDescription("Searches the product catalog. Supports free-text query, category, brand and a maximum price."),
			WithCategory("catalog"),
			WithParameters(map[string]string{
				"query":     "Free-text search terms",
				"category":  "Optional category filter (e.g. 'laptops')",
				"brand":     "Optional brand filter",
				"max_price": "Optional price ceiling as a number",
				"limit":     "Optional maximum number of results",
			}),
			WithReturns("A 'products' list with name, price, brand and category per item, plus a 'count'."),
			WithExamples([]string{
				`search_products {"query": "laptop", "max_price": 2000}`,
				`search_products {"category": "headphones", "brand": "Sony"}`,
			}),
		),
		"get_customer": NewFuncTool(
			"get_customer",
			getCustomer(client),
			WithDescription("Fetches a customer's account record by customer id."),
			WithCategory("customers"),
			WithParameters(map[string]string{
				"customer_id": "The customer id (e.g. 'CUST-001')",
			}),
			WithReturns("A 'customer' object with id, name and email."),
			WithValidator(requireArgs("customer_id")),
		),
		"get_customer_orders": NewFuncTool(
			"get_customer_orders",
			getCustomerOrders(client),
			WithDescription("Fetches all orders for a customer, most recent first."),
			WithCategory("orders"),
			WithParameters(map[string]string{
				"customer_id": "The customer id",
			}),
			WithReturns("An 'orders' list (possibly empty) plus a 'count'."),
			WithValidator(requireArgs("customer_id")),
		),
		"get_order": NewFuncTool(
			"get_order",
			getOrder(client),
			WithDescription("Fetches one order with its line items by order id."),
			WithCategory("orders"),
			WithParameters(map[string]string{
				"order_id": "The order id",
			}),
			WithReturns("An 'order' object with status, total and items."),
			WithValidator(requireArgs("order_id")),
		),
		"create_order": NewFuncTool(
			"create_order",
			createOrder(client),
			WithDescription("Places a new order for a customer with the given line items."),
			WithCategory("orders"),
			WithParameters(map[string]string{
				"customer_id": "The customer id",
				"items":       "List of {product_id, quantity} objects",
				"address_id":  "Optional shipping address id",
			}),
			WithReturns("The created 'order' object."),
			WithExamples([]string{
				`create_order {"customer_id": "CUST-001", "items": [{"product_id": "PROD-9", "quantity": 1}]}`,
			}),
			WithValidator(requireArgs("customer_id", "items")),
		),
		"estimate_delivery": NewFuncTool(
			"estimate_delivery",
			estimateDelivery(client),
			WithDescription("Estimates delivery time for a customer based on their default shipping address."),
			WithCategory("orders"),
			WithParameters(map[string]string{
				"customer_id": "The customer id",
			}),
			WithReturns("An 'estimate' object with days, carrier and estimated date."),
			WithValidator(requireArgs("customer_id")),
		),
	}
}

func searchProducts(client *shop.Client) ToolFunc {
	return func(ctx context.Context, input map[string]interface{}) (map[string]interface{}, error) {
		q := shop.SearchQuery{}
		if query, ok := stringArg(input, "query"); ok {
			q.Query = query
		}
		if category, ok := stringArg(input, "category"); ok {
			q.Category = category
		}
		if brand, ok := stringArg(input, "brand"); ok {
			q.Brand = brand
		}
		if maxPrice, ok := floatArg(input, "max_price"); ok {
			q.MaxPrice = maxPrice
		}
		if limit, ok := intArg(input, "limit"); ok {
			q.Limit = limit
		}

		products, err := client.SearchProducts(ctx, q)
		if err != nil {
			return nil, err
		}

		list, err := asValue(products)
		if err != nil {
			return nil, err
		}
		if list == nil {
			list = []interface{}{}
		}
		return map[string]interface{}{
			"products": list,
			"count":    len(products),
		}, nil
	}
}

func getCustomer(client *shop.Client) ToolFunc {
	return func(ctx context.Context, input map[string]interface{}) (map[string]interface{}, error) {
		customerID, _ := stringArg(input, "customer_id")
		customer, err := client.GetCustomer(ctx, customerID)
		if err != nil {
			return nil, err
		}
		value, err := asValue(customer)
		if err != nil {
			return nil, err
		}
		return map[string]interface{}{"customer": value}, nil
	}
}

func getCustomerOrders(client *shop.Client) ToolFunc {
	return func(ctx context.Context, input map[string]interface{}) (map[string]interface{}, error) {
		customerID, _ := stringArg(input, "customer_id")
		orders, err := client.GetCustomerOrders(ctx, customerID)
		if err != nil {
			return nil, err
		}
		list, err := asValue(orders)
		if err != nil {
			return nil, err
		}
		if list == nil {
			list = []interface{}{}
		}
		return map[string]interface{}{
			"orders": list,
			"count":  len(orders),
		}, nil
	}
}

func getOrder(client *shop.Client) ToolFunc {
	return func(ctx context.Context, input map[string]interface{}) (map[string]interface{}, error) {
		orderID, _ := stringArg(input, "order_id")
		order, err := client.GetOrder(ctx, orderID)
		if err != nil {
			return nil, err
		}
		value, err := asValue(order)
		if err != nil {
			return nil, err
		}
		return map[string]interface{}{"order": value}, nil
	}
}

func createOrder(client *shop.Client) ToolFunc {
	return func(ctx context.Context, input map[string]interface{}) (map[string]interface{}, error) {
		customerID, _ := stringArg(input, "customer_id")

		rawItems, ok := input["items"].([]interface{})
		if !ok || len(rawItems) == 0 {
			return nil, fmt.Errorf("argument 'items' must be a non-empty list")
		}
		items := make([]shop.OrderItem, 0, len(rawItems))
		for i, raw := range rawItems {
			entry, ok := raw.(map[string]interface{})
			if !ok {
				return nil, fmt.Errorf("item %d must be an object with product_id and quantity", i)
			}
			productID, ok := stringArg(entry, "product_id")
			if !ok {
				return nil, fmt.Errorf("item %d is missing product_id", i)
			}
			quantity, ok := intArg(entry, "quantity")
			if !ok || quantity <= 0 {
				quantity = 1
			}
			items = append(items, shop.OrderItem{ProductID: productID, Quantity: quantity})
		}

		req := shop.CreateOrderRequest{CustomerID: customerID, Items: items}
		if addressID, ok := stringArg(input, "address_id"); ok {
			req.AddressID = addressID
		}

		order, err := client.CreateOrder(ctx, req)
		if err != nil {
			return nil, err
		}
		value, err := asValue(order)
		if err != nil {
			return nil, err
		}
		return map[string]interface{}{"order": value}, nil
	}
}

func estimateDelivery(client *shop.Client) ToolFunc {
	return func(ctx context.Context, input map[string]interface{}) (map[string]interface{}, error) {
		customerID, _ := stringArg(input, "customer_id")

		days := defaultDeliveryDays
		addresses, err := client.GetCustomerAddresses(ctx, customerID)
		if err != nil {
			return nil, err
		}
		for _, addr := range addresses {
			if !addr.IsDefault && len(addresses) > 1 {
				continue
			}
			if d, ok := deliveryDays[addr.Region]; ok {
				days = d
			}
			break
		}

		estimatedDate := time.Now().AddDate(0, 0, days).Format("2006-01-02")
		return map[string]interface{}{
			"estimate": map[string]interface{}{
				"days":           days,
				"carrier":        "ShopHub Express",
				"estimated_date": estimatedDate,
			},
		}, nil
	}
}
