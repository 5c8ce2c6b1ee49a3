package main

import (
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Styling
var (
	docStyle = lipgloss.NewStyle().Margin(1, 2)

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(lipgloss.Color("#30d158")).
			Padding(0, 1)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(lipgloss.Color("#ff453a")).
			Padding(0, 1)
)

// Model defines the application state
type Model struct {
	mainMenu    list.Model
	vendorList  list.Model
	menuList    list.Model
	orderList   list.Model
	cart        *Cart
	orderDetail Order
	stats       *UserStats
	spinner     spinner.Model
	textInput   textinput.Model
	client      *ApiClient
	currentView string
	message     string
	error       string
}

// item represents a list item
type item struct {
	title, desc string
	id          string
}

// FilterValue implements list.Item interface
func (i item) FilterValue() string { return i.title }

// Title implements list.Item interface
func (i item) Title() string { return i.title }

// Description implements list.Item interface
func (i item) Description() string { return i.desc }

// Initialize the model
func initialModel() Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	items := []list.Item{
		item{title: "Browse Menu", desc: "Browse vendors and add items to your cart"},
		item{title: "My Cart", desc: "View and check out your cart"},
		item{title: "My Orders", desc: "Track and cancel your orders"},
		item{title: "My Stats", desc: "Spending and favorite vendor"},
		item{title: "Exit", desc: "Exit the application"},
	}

	mainMenu := list.New(items, list.NewDefaultDelegate(), 0, 0)
	mainMenu.Title = "Mensa"

	vendorList := list.New([]list.Item{}, list.NewDefaultDelegate(), 0, 0)
	vendorList.Title = "Vendors"

	menuList := list.New([]list.Item{}, list.NewDefaultDelegate(), 0, 0)
	menuList.Title = "Menu"

	orderList := list.New([]list.Item{}, list.NewDefaultDelegate(), 0, 0)
	orderList.Title = "My Orders"

	ti := textinput.New()
	ti.Placeholder = "cash | card | meal_plan"
	ti.CharLimit = 40
	ti.Width = 30

	return Model{
		mainMenu:    mainMenu,
		vendorList:  vendorList,
		menuList:    menuList,
		orderList:   orderList,
		spinner:     s,
		textInput:   ti,
		client:      NewApiClient(),
		currentView: "main",
	}
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, tea.EnterAltScreen)
}

// Update handles UI updates
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		h, v := docStyle.GetFrameSize()
		width, height := msg.Width-h, msg.Height-v
		m.mainMenu.SetSize(width, height)
		m.vendorList.SetSize(width, height)
		m.menuList.SetSize(width, height)
		m.orderList.SetSize(width, height)
		return m, nil
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit
		case "enter":
			switch m.currentView {
			case "main":
				if selected, ok := m.mainMenu.SelectedItem().(item); ok {
					switch selected.title {
					case "Exit":
						return m, tea.Quit
					case "Browse Menu":
						m.currentView = "vendors"
						return m, fetchVendors(m.client)
					case "My Cart":
						m.currentView = "cart"
						return m, fetchCart(m.client)
					case "My Orders":
						m.currentView = "orders"
						return m, fetchOrders(m.client)
					case "My Stats":
						m.currentView = "stats"
						return m, fetchStats(m.client)
					}
				}
			case "vendors":
				if selected, ok := m.vendorList.SelectedItem().(item); ok {
					m.currentView = "menu"
					return m, fetchMenu(m.client, selected.id)
				}
			case "menu":
				if selected, ok := m.menuList.SelectedItem().(item); ok {
					return m, addToCart(m.client, selected.id)
				}
			case "orders":
				if selected, ok := m.orderList.SelectedItem().(item); ok {
					m.currentView = "order_detail"
					return m, fetchOrderDetail(m.client, selected.id)
				}
			case "checkout":
				if m.textInput.Focused() {
					payment := m.textInput.Value()
					m.textInput.Blur()
					return m, checkout(m.client, payment)
				}
			}
		case "esc":
			switch m.currentView {
			case "menu":
				m.currentView = "vendors"
			case "order_detail":
				m.currentView = "orders"
				return m, fetchOrders(m.client)
			case "checkout":
				m.currentView = "cart"
				m.textInput.Blur()
				return m, fetchCart(m.client)
			case "main":
			default:
				m.currentView = "main"
				m.error = ""
				m.message = ""
			}
		case "o":
			if m.currentView == "cart" && m.cart != nil && len(m.cart.Items) > 0 {
				m.currentView = "checkout"
				m.textInput.SetValue("")
				m.textInput.Focus()
				return m, nil
			}
		case "x":
			if m.currentView == "cart" {
				return m, clearCart(m.client)
			}
		case "c":
			if m.currentView == "order_detail" {
				return m, cancelOrder(m.client, m.orderDetail.OrderID)
			}
		}
	case vendorsMsg:
		m.vendorList.SetItems(convertVendorsToItems(msg.vendors))
		return m, nil
	case menuMsg:
		m.menuList.SetItems(convertMenuToItems(msg.items))
		return m, nil
	case cartMsg:
		m.cart = msg.cart
		m.error = ""
		if m.currentView == "menu" {
			m.message = fmt.Sprintf("Cart: %d line(s), $%.2f", len(msg.cart.Items), msg.cart.Total())
		}
		return m, nil
	case ordersMsg:
		m.orderList.SetItems(convertOrdersToItems(msg.orders))
		return m, nil
	case orderDetailMsg:
		m.orderDetail = msg.order
		return m, nil
	case orderPlacedMsg:
		m.currentView = "order_detail"
		m.orderDetail = msg.order
		m.message = successStyle.Render("Order placed")
		return m, nil
	case statsMsg:
		m.stats = msg.stats
		return m, nil
	case errorMsg:
		m.error = msg.err
		return m, nil
	}

	var cmd tea.Cmd
	switch m.currentView {
	case "main":
		m.mainMenu, cmd = m.mainMenu.Update(msg)
	case "vendors":
		m.vendorList, cmd = m.vendorList.Update(msg)
	case "menu":
		m.menuList, cmd = m.menuList.Update(msg)
	case "orders":
		m.orderList, cmd = m.orderList.Update(msg)
	case "checkout":
		m.textInput, cmd = m.textInput.Update(msg)
	}

	return m, cmd
}

// View renders the UI
func (m Model) View() string {
	footer := ""
	if m.error != "" {
		footer = "\n" + errorStyle.Render(m.error) + "\n"
	} else if m.message != "" {
		footer = "\n" + m.message + "\n"
	}

	switch m.currentView {
	case "main":
		return docStyle.Render(m.mainMenu.View())
	case "vendors":
		help := "\nPress 'enter' to browse a vendor's menu, 'esc' to go back\n"
		return docStyle.Render(m.vendorList.View() + help + footer)
	case "menu":
		help := "\nPress 'enter' to add the item to your cart, 'esc' to go back\n"
		return docStyle.Render(m.menuList.View() + help + footer)
	case "cart":
		help := "\nPress 'o' to check out, 'x' to empty the cart, 'esc' to go back\n"
		return docStyle.Render(titleStyle.Render("My Cart") + "\n\n" + cartView(m.cart) + help + footer)
	case "checkout":
		help := "\nEnter a payment method and press 'enter', 'esc' to cancel\n"
		return docStyle.Render(titleStyle.Render("Checkout") + "\n\n" + cartView(m.cart) + "\n" + m.textInput.View() + help + footer)
	case "orders":
		help := "\nPress 'enter' to view details, 'esc' to go back\n"
		return docStyle.Render(m.orderList.View() + help + footer)
	case "order_detail":
		return docStyle.Render(orderDetailView(m.orderDetail) + footer)
	case "stats":
		return docStyle.Render(titleStyle.Render("My Stats") + "\n\n" + statsView(m.stats) + "\nPress 'esc' to go back\n" + footer)
	default:
		return "Loading..."
	}
}

// Custom message types for the tea.Model
type vendorsMsg struct {
	vendors []Vendor
}

type menuMsg struct {
	items []MenuItem
}

type cartMsg struct {
	cart *Cart
}

type ordersMsg struct {
	orders []Order
}

type orderDetailMsg struct {
	order Order
}

type orderPlacedMsg struct {
	order Order
}

type statsMsg struct {
	stats *UserStats
}

type errorMsg struct {
	err string
}

func fetchVendors(client *ApiClient) tea.Cmd {
	return func() tea.Msg {
		vendors, err := client.GetVendors()
		if err != nil {
			return errorMsg{err: fmt.Sprintf("Error fetching vendors: %v", err)}
		}
		return vendorsMsg{vendors: vendors}
	}
}

func fetchMenu(client *ApiClient, vendorID string) tea.Cmd {
	return func() tea.Msg {
		items, err := client.GetMenu(vendorID)
		if err != nil {
			return errorMsg{err: fmt.Sprintf("Error fetching menu: %v", err)}
		}
		return menuMsg{items: items}
	}
}

func fetchCart(client *ApiClient) tea.Cmd {
	return func() tea.Msg {
		cart, err := client.GetCart()
		if err != nil {
			return errorMsg{err: fmt.Sprintf("Error fetching cart: %v", err)}
		}
		return cartMsg{cart: cart}
	}
}

func addToCart(client *ApiClient, itemID string) tea.Cmd {
	return func() tea.Msg {
		cart, err := client.AddToCart(itemID, 1)
		if err != nil {
			return errorMsg{err: fmt.Sprintf("Could not add item: %v", err)}
		}
		return cartMsg{cart: cart}
	}
}

func clearCart(client *ApiClient) tea.Cmd {
	return func() tea.Msg {
		cart, err := client.ClearCart()
		if err != nil {
			return errorMsg{err: fmt.Sprintf("Error clearing cart: %v", err)}
		}
		return cartMsg{cart: cart}
	}
}

func checkout(client *ApiClient, paymentMethod string) tea.Cmd {
	return func() tea.Msg {
		order, err := client.Checkout(paymentMethod, "normal", "")
		if err != nil {
			return errorMsg{err: fmt.Sprintf("Checkout failed: %v", err)}
		}
		return orderPlacedMsg{order: *order}
	}
}

func fetchOrders(client *ApiClient) tea.Cmd {
	return func() tea.Msg {
		orders, err := client.GetOrders("")
		if err != nil {
			return errorMsg{err: fmt.Sprintf("Error fetching orders: %v", err)}
		}
		return ordersMsg{orders: orders}
	}
}

func fetchOrderDetail(client *ApiClient, orderID string) tea.Cmd {
	return func() tea.Msg {
		order, err := client.GetOrder(orderID)
		if err != nil {
			return errorMsg{err: fmt.Sprintf("Error fetching order details: %v", err)}
		}
		return orderDetailMsg{order: *order}
	}
}

func cancelOrder(client *ApiClient, orderID string) tea.Cmd {
	return func() tea.Msg {
		order, err := client.CancelOrder(orderID, "cancelled from terminal")
		if err != nil {
			return errorMsg{err: fmt.Sprintf("Could not cancel order: %v", err)}
		}
		return orderDetailMsg{order: *order}
	}
}

func fetchStats(client *ApiClient) tea.Cmd {
	return func() tea.Msg {
		stats, err := client.GetStats()
		if err != nil {
			return errorMsg{err: fmt.Sprintf("Error fetching stats: %v", err)}
		}
		return statsMsg{stats: stats}
	}
}

func convertVendorsToItems(vendors []Vendor) []list.Item {
	items := make([]list.Item, len(vendors))
	for i, vendor := range vendors {
		status := "open"
		if !vendor.Open {
			status = "closed"
		}
		items[i] = item{
			id:    vendor.VendorID,
			title: vendor.Name,
			desc:  status,
		}
	}
	return items
}

func convertMenuToItems(menu []MenuItem) []list.Item {
	items := make([]list.Item, len(menu))
	for i, mi := range menu {
		desc := fmt.Sprintf("$%.2f - ready in ~%d min", mi.Price, mi.PrepMinutes)
		if !mi.Available {
			desc += " (unavailable)"
		}
		items[i] = item{
			id:    mi.ItemID,
			title: mi.Name,
			desc:  desc,
		}
	}
	return items
}

func convertOrdersToItems(orders []Order) []list.Item {
	items := make([]list.Item, len(orders))
	for i, order := range orders {
		items[i] = item{
			id:    order.OrderID,
			title: fmt.Sprintf("%s - $%.2f", order.VendorID, order.Total),
			desc:  fmt.Sprintf("%d items - %s - placed %s", len(order.Items), order.EffectiveStatus, order.PlacedAt.Format("Jan 2 15:04")),
		}
	}
	return items
}

func cartView(cart *Cart) string {
	if cart == nil || len(cart.Items) == 0 {
		return "Your cart is empty\n"
	}

	view := fmt.Sprintf("Vendor: %s\n\n", cart.VendorID)
	for i, line := range cart.Items {
		view += fmt.Sprintf("%d. %s (x%d) - $%.2f\n", i+1, line.Name, line.Quantity, line.UnitPrice*float64(line.Quantity))
		if line.LineNote != "" {
			view += fmt.Sprintf("   Note: %s\n", line.LineNote)
		}
	}
	view += fmt.Sprintf("\nTotal: $%.2f\n", cart.Total())
	return view
}

func orderDetailView(order Order) string {
	view := titleStyle.Render("Order "+order.OrderID) + "\n\n"
	view += fmt.Sprintf("Vendor: %s\n", order.VendorID)
	view += fmt.Sprintf("Status: %s\n", order.EffectiveStatus)
	view += fmt.Sprintf("Kind: %s\n", order.Kind)
	view += fmt.Sprintf("Placed: %s\n", order.PlacedAt.Format(time.RFC1123))
	view += fmt.Sprintf("Ready by: %s\n", order.EstimatedReadyAt.Format(time.RFC1123))
	if order.CompletedAt != nil {
		view += fmt.Sprintf("Completed: %s\n", order.CompletedAt.Format(time.RFC1123))
	}

	view += "\nItems:\n"
	for i, line := range order.Items {
		view += fmt.Sprintf("%d. %s (x%d) - $%.2f\n", i+1, line.Name, line.Quantity, line.Subtotal)
		if line.LineNote != "" {
			view += fmt.Sprintf("   Note: %s\n", line.LineNote)
		}
	}
	view += fmt.Sprintf("\nTotal: $%.2f (%s)\n", order.Total, order.PaymentMethod)

	view += "\nPress 'c' to cancel the order, 'esc' to go back to the list"
	return view
}

func statsView(stats *UserStats) string {
	if stats == nil {
		return "Loading...\n"
	}
	view := fmt.Sprintf("Orders placed: %d\n", stats.TotalOrders)
	view += fmt.Sprintf("Completed: %d\n", stats.CompletedOrders)
	view += fmt.Sprintf("Total spent: $%.2f\n", stats.TotalSpent)
	if stats.FavoriteVendor != "" {
		view += fmt.Sprintf("Favorite vendor: %s\n", stats.FavoriteVendor)
	}
	return view
}

func main() {
	p := tea.NewProgram(initialModel())
	if _, err := p.Run(); err != nil {
		fmt.Printf("Error running program: %v", err)
		os.Exit(1)
	}
}
