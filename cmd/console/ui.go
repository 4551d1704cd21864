package main

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/jwebster45206/map-quest/pkg/navigator"
	"github.com/jwebster45206/map-quest/pkg/script"
	"github.com/jwebster45206/map-quest/pkg/state"
)

const (
	PlaceHolderText = "Enter a choice number, or /help..."
	maxMapLog       = 10
	maxActivity     = 6
)

// ConsoleUI is the BubbleTea model that runs the UI.
// https://github.com/charmbracelet/bubbletea
type ConsoleUI struct {
	config       *ConsoleConfig
	client       *http.Client
	sseClient    *http.Client
	session      *state.SessionState
	promptCount  int
	current      int
	prompt       *script.PromptContent
	report       *navigator.Report
	gameOver     bool
	mapLog       []string
	activity     []string
	status       string
	mainViewport viewport.Model
	metaViewport viewport.Model
	textarea     textarea.Model
	ready        bool
	width        int
	height       int
	err          error
	loading      bool

	events       chan SSEEvent
	cancelEvents context.CancelFunc

	// Game selection state
	showGameModal bool
	games         []string
	gameMap       map[string]string
	selectedGame  int
	loadingGames  bool

	// Quit confirmation state
	showQuitModal bool

	// Progress bar state
	progressTick int
}

type gamesLoadedMsg struct {
	games   []string
	gameMap map[string]string
	err     error
}

type sessionCreatedMsg struct {
	session     *state.SessionState
	promptCount int
	err         error
}

type promptMsg struct {
	index   int
	content *script.PromptContent
	err     error
}

type choiceMsg struct {
	choice int
	resp   *ChoiceResponse
	err    error
}

type reportMsg struct {
	report *navigator.Report
	err    error
}

type actionsMsg struct {
	actions []script.Action
	err     error
}

type sseEventMsg struct {
	event SSEEvent
	ok    bool
}

type copiedMsg struct {
	err error
}

type progressTickMsg struct{}

var (
	mainPanelStyle = lipgloss.NewStyle().
			PaddingTop(2).
			PaddingBottom(1).
			PaddingLeft(3).
			PaddingRight(0)

	metaPanelStyle = lipgloss.NewStyle().
			PaddingTop(2).
			PaddingBottom(0).
			PaddingLeft(0).
			PaddingRight(2)

	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")). // pink
			Bold(true)

	choiceNumberStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("212")). // purple
				Bold(true)

	actionStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("86")) // green

	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39")) // teal

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")) // red

	loadingStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")) // yellow

	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")) // dark grey

	modalStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			Padding(1, 2).
			Background(lipgloss.Color("235")).
			Foreground(lipgloss.Color("255"))

	modalTitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Bold(true).
			Align(lipgloss.Center)

	modalItemStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("255"))

	modalSelectedItemStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("0")).
				Background(lipgloss.Color("205")).
				Bold(true)
)

var separatorStyle = lipgloss.NewStyle().
	Foreground(lipgloss.Color("240")) // dark grey

var titleCaser = cases.Title(language.English)

func NewConsoleUI(cfg *ConsoleConfig, client, sseClient *http.Client) ConsoleUI {
	ta := textarea.New()
	ta.Placeholder = PlaceHolderText
	ta.Focus()
	ta.Prompt = promptStyle.Render(":: ")
	ta.CharLimit = 200
	ta.SetWidth(50)
	ta.SetHeight(1)
	ta.ShowLineNumbers = false

	mainVp := viewport.New(50, 20)
	mainVp.MouseWheelEnabled = true

	metaVp := viewport.New(20, 20)

	return ConsoleUI{
		config:        cfg,
		client:        client,
		sseClient:     sseClient,
		textarea:      ta,
		mainViewport:  mainVp,
		metaViewport:  metaVp,
		showGameModal: true,
		loadingGames:  true,
	}
}

// displayText renders a prompt content item or choice. Scripts may use plain
// strings or objects with a text-like field.
func displayText(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case map[string]any:
		for _, key := range []string{"text", "label", "title", "html"} {
			if s, ok := t[key].(string); ok {
				return s
			}
		}
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, 0, len(keys))
		for _, k := range keys {
			parts = append(parts, fmt.Sprintf("%s: %v", k, t[k]))
		}
		return strings.Join(parts, ", ")
	default:
		return fmt.Sprint(v)
	}
}

// actionLabel is the one-line description of a map action.
func actionLabel(a script.Action) string {
	label := titleCaser.String(strings.NewReplacer("_", " ", "-", " ").Replace(a.Name))
	if len(a.Data) == 0 {
		return label
	}
	args := make([]string, 0, len(a.Data))
	for _, d := range a.Data {
		args = append(args, displayText(d))
	}
	return label + " " + strings.Join(args, ", ")
}

func renderPrompt(index int, p *script.PromptContent, width int) string {
	var content strings.Builder
	content.WriteString(titleStyle.Render(fmt.Sprintf("%d. %s", index+1, p.Title)) + "\n\n")
	for _, item := range p.Contents {
		content.WriteString(wordwrap.String(displayText(item), width) + "\n\n")
	}
	for i, choice := range p.Choices {
		number := choiceNumberStyle.Render(fmt.Sprintf("[%d]", i+1))
		content.WriteString(number + " " + wordwrap.String(displayText(choice), width-5) + "\n")
	}
	return content.String()
}

// renderReport draws the game-over report. The HTML table message is
// replaced by a plain text table built from the score rows.
func renderReport(r *navigator.Report, width int) string {
	var content strings.Builder
	for _, msg := range r.Messages {
		switch msg.Type {
		case navigator.MessageHeading:
			content.WriteString(titleStyle.Render(strings.ToUpper(msg.Value)) + "\n\n")
		case navigator.MessageText:
			content.WriteString(wordwrap.String(msg.Value, width) + "\n\n")
		case navigator.MessageHTML:
			content.WriteString(scoreTable(r.Rows, width) + "\n")
		}
	}
	return content.String()
}

func scoreTable(rows []navigator.ScoreRow, width int) string {
	titleWidth := width - 24
	if titleWidth < 10 {
		titleWidth = 10
	}
	var b strings.Builder
	b.WriteString(fmt.Sprintf("%-*s %7s %7s\n", titleWidth, "Prompt", "Score", "Best"))
	b.WriteString(separatorStyle.Render(strings.Repeat("─", titleWidth+16)) + "\n")
	for _, row := range rows {
		title := fmt.Sprintf("%d. %s", row.Prompt, row.Title)
		if len([]rune(title)) > titleWidth {
			title = string([]rune(title)[:titleWidth-1]) + "…"
		}
		b.WriteString(fmt.Sprintf("%-*s %7s %7s\n", titleWidth, title,
			navigator.FormatPoints(row.Score), navigator.FormatPoints(row.Best)))
	}
	return b.String()
}

func (m ConsoleUI) writeMetadata() string {
	var content strings.Builder
	content.WriteString(titleStyle.Render("SESSION") + "\n\n")

	if m.session != nil {
		content.WriteString("Session ID:\n")
		content.WriteString(m.session.ID.String()[:8] + "...\n\n")
		content.WriteString("Game:\n")
		content.WriteString(m.session.GameName + "\n\n")
	}
	if m.promptCount > 0 {
		content.WriteString("Prompt:\n")
		if m.gameOver {
			content.WriteString("Finished\n\n")
		} else {
			content.WriteString(fmt.Sprintf("%d of %d\n\n", m.current+1, m.promptCount))
		}
	}

	content.WriteString("Map:\n")
	if len(m.mapLog) == 0 {
		content.WriteString("Nothing drawn\n")
	}
	for _, line := range m.mapLog {
		content.WriteString(actionStyle.Render("• "+line) + "\n")
	}

	if len(m.activity) > 0 {
		content.WriteString("\nActivity:\n")
		for _, line := range m.activity {
			content.WriteString(promptStyle.Render(line) + "\n")
		}
	}

	content.WriteString("\n")
	content.WriteString("Commands:\n")
	content.WriteString("• Ctrl+C: Quit\n")
	content.WriteString("• 1-9: Choose\n")
	content.WriteString("• /help: Help\n")
	content.WriteString("• /copy: Copy ID\n")

	return content.String()
}

// writeMainContent rebuilds the main panel for the current viewport width
func (m *ConsoleUI) writeMainContent() {
	width := m.mainViewport.Width - 6 // Account for left(3) + right(3) padding
	if width < 20 {
		width = 20
	}

	var content strings.Builder
	content.WriteString(titleStyle.Render("MAP QUEST") + "\n\n")
	content.WriteString(separatorStyle.Render(strings.Repeat("─", width)) + "\n\n")

	switch {
	case m.report != nil:
		content.WriteString(renderReport(m.report, width))
	case m.prompt != nil:
		content.WriteString(renderPrompt(m.current, m.prompt, width))
	}

	if m.status != "" {
		content.WriteString("\n" + statusStyle.Render(wordwrap.String(m.status, width)) + "\n")
	}
	if m.err != nil {
		content.WriteString("\n" + errorStyle.Render(wordwrap.String("Error: "+m.err.Error(), width)) + "\n")
	}
	if m.loading {
		content.WriteString("\n" + m.renderProgressBar())
	}

	m.mainViewport.SetContent(content.String())
}

func (m *ConsoleUI) refresh() {
	m.writeMainContent()
	m.metaViewport.SetContent(m.writeMetadata())
}

func (m *ConsoleUI) resize() {
	mainWidth := int(float64(m.width)*0.7) - 4
	metaWidth := m.width - mainWidth - 6

	m.mainViewport.Width = mainWidth - 2
	m.mainViewport.Height = m.height - 7
	m.metaViewport.Width = metaWidth - 2
	m.metaViewport.Height = m.height - 4
	m.textarea.SetWidth(mainWidth - 4)
}

func (m ConsoleUI) Init() tea.Cmd {
	return m.loadGames()
}

func (m ConsoleUI) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.showQuitModal {
		return m.updateQuitModal(msg)
	}
	if m.showGameModal {
		return m.updateGameModal(msg)
	}

	var (
		tiCmd tea.Cmd
		vpCmd tea.Cmd
		mvCmd tea.Cmd
	)

	switch msg := msg.(type) {
	case tea.MouseMsg:
		m.mainViewport, vpCmd = m.mainViewport.Update(msg)
		m.metaViewport, mvCmd = m.metaViewport.Update(msg)
		return m, tea.Batch(vpCmd, mvCmd)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()
		m.ready = true
		m.refresh()

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			m.showQuitModal = true
			return m, nil
		case tea.KeyEnter:
			if m.loading {
				return m, nil
			}
			input := strings.TrimSpace(m.textarea.Value())
			m.textarea.Reset()
			if input == "" {
				return m, nil
			}
			if strings.HasPrefix(input, "/") {
				return m.handleCommand(input)
			}
			return m.handleChoice(input)
		}

	case promptMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
		} else {
			m.err = nil
			m.current = msg.index
			m.prompt = msg.content
			m.report = nil
			m.gameOver = false
		}
		m.refresh()
		m.mainViewport.GotoTop()
		return m, nil

	case choiceMsg:
		return m.handleChoiceResult(msg)

	case reportMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
		} else {
			m.report = msg.report
		}
		m.refresh()
		m.mainViewport.GotoTop()
		return m, nil

	case actionsMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
		} else {
			m.mapLog = m.mapLog[:0]
			m.appendMapLog(msg.actions)
			m.status = fmt.Sprintf("Redrew %d map actions.", len(msg.actions))
		}
		m.refresh()
		return m, nil

	case sseEventMsg:
		if !msg.ok {
			return m, nil
		}
		m.appendActivity(msg.event)
		m.metaViewport.SetContent(m.writeMetadata())
		return m, m.waitForEvent()

	case copiedMsg:
		if msg.err != nil {
			m.err = fmt.Errorf("failed to copy session ID: %w", msg.err)
		} else {
			m.status = "Session ID copied to clipboard."
		}
		m.refresh()
		return m, nil

	case progressTickMsg:
		if m.loading {
			m.progressTick++
			m.writeMainContent()
			return m, progressTick()
		}
	}

	m.textarea, tiCmd = m.textarea.Update(msg)
	m.mainViewport, vpCmd = m.mainViewport.Update(msg)
	m.metaViewport, mvCmd = m.metaViewport.Update(msg)

	return m, tea.Batch(tiCmd, vpCmd, mvCmd)
}

func (m ConsoleUI) handleChoice(input string) (tea.Model, tea.Cmd) {
	n, err := strconv.Atoi(input)
	if err != nil || m.prompt == nil || m.report != nil {
		m.status = "Enter the number of a choice, or /help."
		m.refresh()
		return m, nil
	}

	m.err = nil
	m.status = ""
	m.loading = true
	m.progressTick = 0
	m.writeMainContent()
	return m, tea.Batch(m.pickChoice(m.current, n-1), progressTick())
}

func (m ConsoleUI) handleChoiceResult(msg choiceMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		m.loading = false
		m.err = msg.err
		m.refresh()
		return m, nil
	}

	m.appendMapLog(msg.resp.Actions)
	if len(msg.resp.Actions) > 0 {
		labels := make([]string, 0, len(msg.resp.Actions))
		for _, a := range msg.resp.Actions {
			labels = append(labels, actionLabel(a))
		}
		m.status = "Map: " + strings.Join(labels, "; ")
	}

	if msg.resp.GameOver {
		m.gameOver = true
		m.refresh()
		return m, m.fetchReport()
	}
	if next, ok := msg.resp.NextPromptIndex.Prompt(); ok {
		return m, m.navigate(next)
	}
	if m.current+1 < m.promptCount {
		return m, m.navigate(m.current + 1)
	}
	// Ran off the end of the script without an explicit end.
	m.gameOver = true
	m.refresh()
	return m, m.fetchReport()
}

func (m *ConsoleUI) appendMapLog(actions []script.Action) {
	for _, a := range actions {
		m.mapLog = append(m.mapLog, actionLabel(a))
	}
	if len(m.mapLog) > maxMapLog {
		m.mapLog = m.mapLog[len(m.mapLog)-maxMapLog:]
	}
}

func (m *ConsoleUI) appendActivity(e SSEEvent) {
	line := time.Now().Format("15:04:05") + " " + e.Type
	m.activity = append(m.activity, line)
	if len(m.activity) > maxActivity {
		m.activity = m.activity[len(m.activity)-maxActivity:]
	}
}

func (m ConsoleUI) handleCommand(input string) (tea.Model, tea.Cmd) {
	fields := strings.Fields(strings.ToLower(input))
	m.err = nil
	m.status = ""

	switch fields[0] {
	case "/help":
		m.status = "Commands: /goto N jumps to prompt N, /back goes to the previous prompt, " +
			"/actions redraws the map, /report shows the score, /copy copies the session ID, /quit exits."

	case "/goto":
		if len(fields) < 2 {
			m.status = "Usage: /goto N"
			break
		}
		n, err := strconv.Atoi(fields[1])
		if err != nil {
			m.status = "Usage: /goto N"
			break
		}
		m.loading = true
		m.writeMainContent()
		return m, m.navigate(n - 1)

	case "/back":
		m.loading = true
		m.writeMainContent()
		return m, m.navigate(m.current - 1)

	case "/actions":
		m.loading = true
		m.writeMainContent()
		return m, m.fetchActions()

	case "/report":
		m.loading = true
		m.writeMainContent()
		return m, m.fetchReport()

	case "/copy":
		return m, m.copySessionID()

	case "/quit":
		m.showQuitModal = true
		return m, nil

	default:
		m.status = "Unknown command " + fields[0] + ". Try /help."
	}

	m.refresh()
	return m, nil
}

func (m ConsoleUI) loadGames() tea.Cmd {
	return func() tea.Msg {
		names, gameMap, err := listGames(m.client, m.config.APIBaseURL)
		return gamesLoadedMsg{names, gameMap, err}
	}
}

func (m ConsoleUI) startSession(gameFile string) tea.Cmd {
	return func() tea.Msg {
		s, err := createSession(m.client, m.config.APIBaseURL, gameFile)
		if err != nil {
			return sessionCreatedMsg{err: err}
		}
		count, err := getPromptCount(m.client, m.config.APIBaseURL, s.ID)
		return sessionCreatedMsg{s, count, err}
	}
}

func (m ConsoleUI) navigate(index int) tea.Cmd {
	id := m.session.ID
	return func() tea.Msg {
		content, err := navigate(m.client, m.config.APIBaseURL, id, index)
		return promptMsg{index, content, err}
	}
}

func (m ConsoleUI) pickChoice(promptIndex, choiceIndex int) tea.Cmd {
	id := m.session.ID
	return func() tea.Msg {
		resp, err := pickChoice(m.client, m.config.APIBaseURL, id, promptIndex, choiceIndex)
		return choiceMsg{choiceIndex, resp, err}
	}
}

func (m ConsoleUI) fetchReport() tea.Cmd {
	id := m.session.ID
	return func() tea.Msg {
		r, err := getReport(m.client, m.config.APIBaseURL, id)
		return reportMsg{r, err}
	}
}

func (m ConsoleUI) fetchActions() tea.Cmd {
	id := m.session.ID
	return func() tea.Msg {
		actions, err := previousActions(m.client, m.config.APIBaseURL, id)
		return actionsMsg{actions, err}
	}
}

func (m ConsoleUI) copySessionID() tea.Cmd {
	id := m.session.ID.String()
	return func() tea.Msg {
		return copiedMsg{clipboard.WriteAll(id)}
	}
}

// listenEvents subscribes to the session's event stream in the background.
func (m *ConsoleUI) listenEvents() tea.Cmd {
	ctx, cancel := context.WithCancel(context.Background())
	m.cancelEvents = cancel
	m.events = make(chan SSEEvent, 16)
	client, baseURL, id := m.sseClient, m.config.APIBaseURL, m.session.ID
	go func(events chan SSEEvent) {
		defer close(events)
		_ = listenToSSE(ctx, client, baseURL, id, events)
	}(m.events)
	return m.waitForEvent()
}

func (m ConsoleUI) waitForEvent() tea.Cmd {
	events := m.events
	if events == nil {
		return nil
	}
	return func() tea.Msg {
		e, ok := <-events
		return sseEventMsg{e, ok}
	}
}

func (m ConsoleUI) stopEvents() {
	if m.cancelEvents != nil {
		m.cancelEvents()
	}
}

func (m ConsoleUI) updateGameModal(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case gamesLoadedMsg:
		m.loadingGames = false
		if msg.err != nil {
			m.err = msg.err
		} else {
			m.games = msg.games
			m.gameMap = msg.gameMap
		}

	case sessionCreatedMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.session = msg.session
		m.promptCount = msg.promptCount
		m.showGameModal = false
		if m.width > 0 && m.height > 0 {
			m.resize()
		}
		m.ready = true
		m.textarea.Focus()
		m.refresh()
		eventsCmd := m.listenEvents()
		return m, tea.Batch(textarea.Blink, eventsCmd, m.navigate(0))

	case tea.KeyMsg:
		if m.loadingGames || m.err != nil {
			if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyEsc {
				return m, tea.Quit
			}
			return m, nil
		}

		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			m.showQuitModal = true
			return m, nil
		case tea.KeyUp:
			if m.selectedGame > 0 {
				m.selectedGame--
			}
		case tea.KeyDown:
			if m.selectedGame < len(m.games)-1 {
				m.selectedGame++
			}
		case tea.KeyEnter:
			if len(m.games) > 0 && !m.loading {
				gameFile := m.gameMap[m.games[m.selectedGame]]
				m.loading = true
				return m, m.startSession(gameFile)
			}
		}
	}

	return m, nil
}

func (m ConsoleUI) updateQuitModal(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc, tea.KeyEnter:
			return m, tea.Quit
		default:
			switch msg.String() {
			case "y", "Y":
				return m, tea.Quit
			case "n", "N":
				m.showQuitModal = false
				if m.showGameModal {
					return m, nil
				}
				m.textarea.Focus()
				return m, textarea.Blink
			}
		}
	}

	return m, nil
}

func (m ConsoleUI) renderQuitModal() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	var content strings.Builder
	content.WriteString(modalTitleStyle.Render("Quit Game?"))
	content.WriteString("\n\n")
	content.WriteString("Your session is saved and can be resumed with its ID.")
	content.WriteString("\n\n")
	content.WriteString(promptStyle.Render("Press Y to quit, N to continue, or Ctrl+C to force quit"))

	modal := modalStyle.Width(50).Render(content.String())
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, modal, lipgloss.WithWhitespaceChars(" "))
}

func (m ConsoleUI) renderGameModal() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	var content strings.Builder

	switch {
	case m.loadingGames:
		content.WriteString(modalTitleStyle.Render("Loading Games..."))
		content.WriteString("\n\n")
		content.WriteString(loadingStyle.Render("Please wait while we fetch available games..."))
	case m.err != nil:
		content.WriteString(modalTitleStyle.Render("Error"))
		content.WriteString("\n\n")
		content.WriteString(errorStyle.Render(fmt.Sprintf("Failed to start: %v", m.err)))
		content.WriteString("\n\n")
		content.WriteString("Press Ctrl+C to exit")
	case m.loading:
		content.WriteString(modalTitleStyle.Render("Starting Game..."))
		content.WriteString("\n\n")
		content.WriteString(loadingStyle.Render("Unfolding the map..."))
	case len(m.games) == 0:
		content.WriteString(modalTitleStyle.Render("No Games"))
		content.WriteString("\n\n")
		content.WriteString("The server has no game scripts. Press Ctrl+C to exit")
	default:
		content.WriteString(modalTitleStyle.Render("Select a Game"))
		content.WriteString("\n\n")

		for i, game := range m.games {
			if i == m.selectedGame {
				content.WriteString(modalSelectedItemStyle.Render(fmt.Sprintf("▶ %s", game)))
			} else {
				content.WriteString(modalItemStyle.Render(fmt.Sprintf("  %s", game)))
			}
			content.WriteString("\n")
		}

		content.WriteString("\n")
		content.WriteString(promptStyle.Render("Use ↑/↓ to navigate, Enter to select, Ctrl+C to exit"))
	}

	modal := modalStyle.Width(60).Render(content.String())
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, modal, lipgloss.WithWhitespaceChars(" "))
}

func (m ConsoleUI) View() string {
	if m.showQuitModal {
		return m.renderQuitModal()
	}

	if m.showGameModal {
		return m.renderGameModal()
	}

	if !m.ready {
		return "\n  Initializing..."
	}

	mainWidth := int(float64(m.width)*0.7) - 4
	metaWidth := m.width - mainWidth - 6

	mainPanel := mainPanelStyle.Width(mainWidth).Height(m.height - 3).Render(
		lipgloss.JoinVertical(lipgloss.Left,
			m.mainViewport.View(),
			"",
			separatorStyle.Render(strings.Repeat("─", max(mainWidth-4, 0))),
			m.textarea.View(),
		),
	)

	metaPanel := metaPanelStyle.Width(metaWidth).Height(m.height - 2).Render(
		m.metaViewport.View(),
	)

	return lipgloss.JoinHorizontal(lipgloss.Top, mainPanel, metaPanel)
}

// renderProgressBar creates an animated progress bar for loading states
func (m ConsoleUI) renderProgressBar() string {
	usable := m.mainViewport.Width - 6
	if usable <= 0 {
		usable = 30 // fallback before sizing
	}

	if usable > 80 {
		usable = 80
	} else if usable < 10 {
		usable = 10
	}

	const totalFrames = 40
	frame := m.progressTick % totalFrames
	filled := (frame * usable) / totalFrames

	var bar strings.Builder
	for i := 0; i < usable; i++ {
		if i < filled {
			bar.WriteString("█")
		} else if i == filled && frame%4 < 2 {
			bar.WriteString("▓") // Blinking effect at the progress point
		} else {
			bar.WriteString("░")
		}
	}
	return separatorStyle.Render(bar.String())
}

// progressTick creates a command that sends a progress tick message
func progressTick() tea.Cmd {
	return tea.Tick(time.Millisecond*200, func(time.Time) tea.Msg {
		return progressTickMsg{}
	})
}
