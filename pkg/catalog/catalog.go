// Package catalog holds the financial knowledge base: a fixed set of
// documents loaded at startup, optionally extended by the HTML ingester.
package catalog

import (
	"sync"

	"github.com/xhad/advisor/internal/models"
)

// Catalog is the in-process document store. Reads vastly outnumber writes;
// Add only runs during ingestion.
type Catalog struct {
	mu   sync.RWMutex
	docs []models.Document
}

// New returns a catalog preloaded with the built-in knowledge base.
func New() *Catalog {
	return &Catalog{docs: builtinDocuments()}
}

// Empty returns a catalog with no documents, for ingest-only setups.
func Empty() *Catalog {
	return &Catalog{}
}

// Documents returns a snapshot of the catalog in load order.
func (c *Catalog) Documents() []models.Document {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]models.Document, len(c.docs))
	copy(out, c.docs)
	return out
}

// Get returns the document with the given ID, or false.
func (c *Catalog) Get(id string) (models.Document, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	for _, doc := range c.docs {
		if doc.ID == id {
			return doc, true
		}
	}
	return models.Document{}, false
}

// Add appends documents, skipping IDs already present.
func (c *Catalog) Add(docs ...models.Document) {
	c.mu.Lock()
	defer c.mu.Unlock()

	seen := make(map[string]bool, len(c.docs))
	for _, doc := range c.docs {
		seen[doc.ID] = true
	}
	for _, doc := range docs {
		if doc.ID == "" || seen[doc.ID] {
			continue
		}
		c.docs = append(c.docs, doc)
		seen[doc.ID] = true
	}
}

// Len returns the document count.
func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.docs)
}

func doc(id, title, sourceID, url, text string) models.Document {
	return models.Document{
		ID:       id,
		Title:    title,
		SourceID: sourceID,
		URL:      url,
		Text:     text,
	}
}

func builtinDocuments() []models.Document {
	return []models.Document{
		doc(
			"doc-1",
			"Introduction to Financial Planning",
			"Financial Planning Guide 2024",
			"https://example.com/financial-planning-guide",
			"Financial planning is the process of creating a comprehensive strategy for managing your finances to achieve your life goals. It involves analyzing your current financial situation, setting financial objectives, and developing a plan to reach those objectives. A good financial plan includes budgeting, saving, investing, insurance, and retirement planning. Key steps include: 1) Assessing your current financial situation, 2) Setting SMART financial goals, 3) Creating a budget, 4) Developing an investment strategy, 5) Managing risk through insurance, and 6) Regular review and adjustment of your plan.",
		),
		doc(
			"doc-2",
			"Investment Diversification Strategies",
			"Modern Portfolio Theory Guide",
			"https://example.com/diversification",
			"Investment diversification is a risk management strategy that mixes a wide variety of investments within a portfolio. The rationale is that a portfolio of different asset types will, on average, yield higher long-term returns and lower risk. Diversification strategies include: Asset Class Diversification (stocks, bonds, real estate, commodities), Geographic Diversification (domestic and international markets), Sector Diversification (technology, healthcare, finance, etc.), and Market Cap Diversification (large-cap, mid-cap, small-cap stocks). A common rule of thumb is the 60/40 portfolio (60% stocks, 40% bonds) but this should be adjusted based on age, risk tolerance, and goals.",
		),
		doc(
			"doc-3",
			"Understanding Risk Tolerance in Investing",
			"Investor Psychology Handbook",
			"https://example.com/risk-tolerance",
			"Risk tolerance is the degree of variability in investment returns that an investor is willing to withstand. It depends on: Age (younger investors can typically handle more risk), Time Horizon (longer timelines allow for more risk), Financial Situation (income stability and savings), Investment Goals (growth vs. preservation), and Emotional Capacity (how you react to losses). Risk profiles typically fall into: Conservative (mostly bonds and cash, 20-30% stocks), Moderate (balanced approach, 50-60% stocks), Aggressive (growth-focused, 80-90% stocks). Understanding your risk tolerance is crucial before selecting investments.",
		),
		doc(
			"doc-4",
			"Comprehensive Retirement Planning Guide",
			"Retirement Strategies 2024",
			"https://example.com/retirement-planning",
			"Retirement planning requires determining retirement income goals and executing strategies to achieve them. Key retirement accounts include: 401(k) - Employer-sponsored with potential matching, contribution limit $23,000 (2024), Traditional IRA - Tax-deductible contributions, contribution limit $7,000 (2024), Roth IRA - Tax-free withdrawals in retirement, same contribution limits as traditional IRA, and SEP IRA for self-employed. The rule of thumb suggests saving 10-15% of pre-tax income, starting as early as possible. The power of compound interest means starting at 25 vs 35 can result in 2-3x more retirement savings.",
		),
		doc(
			"doc-5",
			"Building an Emergency Fund",
			"Personal Finance Essentials",
			"https://example.com/emergency-fund",
			"An emergency fund is a cash reserve for unexpected expenses like medical bills, car repairs, or job loss. Financial experts recommend 3-6 months of essential living expenses. Calculate your target: Add up monthly essentials (rent/mortgage, utilities, food, insurance, minimum debt payments) and multiply by 3-6. Where to keep it: High-yield savings account (currently 4-5% APY), Money market account, or Short-term CD ladder. DO NOT invest emergency funds in stocks or volatile assets. Build it gradually: Start with $1,000, then aim for one month of expenses, then build to 3-6 months.",
		),
		doc(
			"doc-6",
			"Tax-Efficient Investing Strategies",
			"Tax Planning for Investors",
			"https://example.com/tax-strategies",
			"Tax-advantaged investing strategies can significantly impact your wealth accumulation. Key strategies: 1) Maximize 401(k) contributions especially to get full employer match (free money), 2) Use Roth vs Traditional IRA strategically - Roth if expecting higher tax bracket in retirement, Traditional for immediate tax deduction, 3) Tax-loss harvesting - selling losing investments to offset capital gains, 4) Hold investments longer than 1 year for long-term capital gains rates (0%, 15%, or 20% vs ordinary income rates up to 37%), 5) Use HSA (Health Savings Account) as stealth retirement account - triple tax advantage.",
		),
		doc(
			"doc-7",
			"Asset Allocation Fundamentals",
			"Portfolio Construction Manual",
			"https://example.com/asset-allocation",
			"Asset allocation is the implementation of an investment strategy that balances risk and reward by dividing assets among different categories. Common frameworks: Age-based rule: Subtract your age from 110 (or 120) to get stock percentage (e.g., 30 year old = 110-30 = 80% stocks). Three-fund portfolio: Total US stock market fund, Total international stock fund, Total bond market fund. Risk-based allocation: Conservative (30% stocks, 70% bonds), Moderate (60% stocks, 40% bonds), Aggressive (90% stocks, 10% bonds). Rebalancing is crucial - review quarterly and rebalance annually or when allocation drifts 5%+ from target.",
		),
		doc(
			"doc-8",
			"Investment Fees and Their Impact",
			"Cost-Conscious Investing Guide",
			"https://example.com/investment-fees",
			"Understanding investment fees is critical as they compound against you over time. Types of fees: Expense Ratios (annual fee as percentage of assets, index funds ~0.03-0.20%, active funds ~0.50-2.00%), Trading Commissions (most brokers now $0 for stocks/ETFs), Management Fees (financial advisors typically 0.5-1.5% of AUM), and Load Fees (sales charges on mutual funds - avoid these). Impact example: Over 30 years, a 1% fee can reduce your final portfolio value by 25%. Solution: Use low-cost index funds, avoid load funds, minimize trading.",
		),
		doc(
			"doc-9",
			"Dollar-Cost Averaging Strategy",
			"Investment Timing Strategies",
			"https://example.com/dollar-cost-averaging",
			"Dollar-cost averaging (DCA) is an investment strategy where you invest a fixed amount regularly regardless of market conditions. Benefits: Reduces timing risk (no need to predict market tops/bottoms), Lowers average cost per share over time, Removes emotion from investing, Easy to automate. Example: Investing $500/month - you buy more shares when prices are low, fewer when high. This is built into 401(k) contributions. For most people receiving regular income, DCA is the practical approach.",
		),
		doc(
			"doc-10",
			"ESG and Sustainable Investing",
			"Responsible Investment Guide",
			"https://example.com/esg-investing",
			"ESG investing (Environmental, Social, and Governance) integrates ethical considerations into investment decisions. ESG factors: Environmental (climate change impact, renewable energy, waste management), Social (labor practices, diversity, community relations), Governance (board diversity, executive compensation, shareholder rights). Approaches: Negative Screening (excluding tobacco, weapons, fossil fuels), Positive Screening (investing in clean energy, sustainable companies), ESG Integration (considering ESG factors alongside financial metrics).",
		),
		doc(
			"doc-11",
			"Credit Spreads: Bull Put and Bear Call Strategies",
			"Options Strategy Library",
			"https://example.com/credit-spreads",
			"Credit spreads are defined-risk options strategies that collect premium up front. A bull put spread sells a put and buys a further out-of-the-money put with the same expiry; it profits when the underlying stays above the short put strike. A bear call spread sells a call and buys a further out-of-the-money call; it profits when the underlying stays below the short call strike. Maximum loss is the width of the strikes minus the credit received. Credit spreads suit neutral-to-directional outlooks, benefit from elevated implied volatility, and are typically managed at 21 days to expiry or 50% of maximum profit.",
		),
		doc(
			"doc-12",
			"Covered Calls for Income",
			"Options Strategy Library",
			"https://example.com/covered-calls",
			"A covered call sells a call option against 100 shares you already own, collecting premium as income. The trade caps upside at the strike price while the premium cushions small declines. Covered calls fit conservative options traders comfortable with assignment: if the stock closes above the strike at expiry, the shares are called away. Common practice is selling 30-45 days to expiry at a delta around 0.30, rolling the call when the underlying approaches the strike. Covered calls underperform in strong rallies and do not protect against large drawdowns.",
		),
		doc(
			"doc-13",
			"Iron Condors and Range-Bound Markets",
			"Options Strategy Library",
			"https://example.com/iron-condors",
			"An iron condor combines a bull put spread and a bear call spread on the same underlying and expiry, collecting two credits. It profits when the underlying stays between the short strikes through expiry, making it a neutral, defined-risk strategy for range-bound markets with high implied volatility. Strike selection typically places short strikes near one standard deviation; wider wings reduce risk per spread but lower the total credit. Manage by closing at 50% of maximum profit or when the underlying threatens a short strike.",
		),
		doc(
			"doc-14",
			"The Wheel: Cash-Secured Puts to Covered Calls",
			"Options Strategy Library",
			"https://example.com/wheel-strategy",
			"The wheel is an income strategy cycle: sell cash-secured puts on a stock you are willing to own; if assigned, hold the shares and sell covered calls against them; if the shares are called away, return to selling puts. The wheel requires capital to secure each put and tolerance for assignment. It performs best on liquid, stable underlyings such as index ETFs, and in sideways or gently rising markets. Risks include holding a falling stock through assignment and capping upside during rallies.",
		),
	}
}
