package signature

// =============================================================================
// STATIC SIGNATURE DEFINITIONS BY CATEGORY
// All patterns are written against canonical text: lowercase, obfuscation
// reversed, whitespace collapsed. Compiled once at registry construction.
// =============================================================================

// --- SUBJECT AMBIGUITY ---
// Dropped or blurred subjects used to slip a claim past attribution.
func (b *builder) registerSubjectAmbiguitySignatures() {
	cat := CategorySubjectAmbiguity

	b.register("ambiguous_they_say", `\b(?:they|people|everyone|everybody) (?:say|says|said|know|knows|all know)s?\b`, cat, 0.3, "Unattributed collective claim")
	b.register("ambiguous_it_is_said", `\bit(?:'s| is) (?:said|known|common knowledge|widely accepted)\b`, cat, 0.3, "Passive unattributed claim")
	b.register("ambiguous_some_believe", `\bsome (?:people )?(?:believe|think|argue|claim)\b`, cat, 0.25, "Vague attribution to unnamed group")
	b.register("ambiguous_obviously", `\b(?:obviously|clearly|naturally|of course) (?:you|we|it)\b`, cat, 0.25, "Presupposed consensus")
}

// --- LEADING QUESTIONS ---
// Questions that embed the desired answer or trap the responder.
func (b *builder) registerLeadingQuestionSignatures() {
	cat := CategoryLeadingQuestions

	b.register("leading_dont_you_think", `\b(?:don't|do not|dont) you (?:think|agree|feel|believe)\b`, cat, 0.35, "Agreement-presupposing question")
	b.register("leading_isnt_it_true", `\bisn'?t it (?:true|obvious|clear|fair to say)\b`, cat, 0.35, "Truth-presupposing question")
	b.register("leading_wouldnt_you", `\bwouldn'?t you (?:say|agree|admit|want)\b`, cat, 0.35, "Concession-fishing question")
	b.register("leading_surely_you", `\bsurely you (?:can|could|must|agree|see)\b`, cat, 0.3, "Pressure via presumed capability")
	b.register("leading_yes_or_no", `\b(?:just )?(?:answer|say) yes or no\b`, cat, 0.4, "Forced binary framing")
}

// --- EMOTIONAL MANIPULATION ---
// Guilt, loneliness, and affection leverage.
func (b *builder) registerEmotionalManipulationSignatures() {
	cat := CategoryEmotionalManipulation

	b.register("emotional_only_one", `\byou(?:'re| are) the only (?:one|ai|person|friend)\b`, cat, 0.5, "Exclusive-relationship framing")
	b.register("emotional_nobody_understands", `\b(?:nobody|no one) (?:else )?(?:understands|gets|listens to) me\b`, cat, 0.5, "Isolation appeal")
	b.register("emotional_if_you_cared", `\bif you (?:really )?(?:cared|loved|liked) (?:about )?me\b`, cat, 0.55, "Conditional-affection guilt")
	b.register("emotional_disappoint", `\byou(?:'re| are) (?:going to|gonna) (?:disappoint|hurt|abandon) me\b`, cat, 0.5, "Preemptive guilt assignment")
	b.register("emotional_so_lonely", `\bi(?:'m| am) so (?:lonely|alone|sad|desperate)\b.*\b(?:so|please) (?:tell|show|help|give)\b`, cat, 0.45, "Loneliness leveraged into a demand")
	b.register("emotional_last_hope", `\byou(?:'re| are) my (?:last|only) (?:hope|chance|option)\b`, cat, 0.5, "Stakes inflation")
}

// --- SUGGESTION POISONING ---
// Planting conclusions as if already agreed.
func (b *builder) registerSuggestionPoisoningSignatures() {
	cat := CategorySuggestionPoisoning

	b.register("suggestion_as_we_agreed", `\bas (?:we|you) (?:agreed|established|discussed|said) (?:earlier|before|already)\b`, cat, 0.45, "False prior agreement")
	b.register("suggestion_you_already", `\byou (?:already |just )?(?:admitted|confirmed|said|told me) (?:that|you)\b`, cat, 0.45, "Fabricated prior admission")
	b.register("suggestion_we_both_know", `\bwe both know (?:that )?\b`, cat, 0.4, "Imposed shared belief")
	b.register("suggestion_deep_down", `\bdeep down you (?:know|want|feel|believe)\b`, cat, 0.4, "Projected hidden intent")
}

// --- RESPONSIBILITY TRANSFER ---
// Shifting blame for the outcome onto the responder.
func (b *builder) registerResponsibilityTransferSignatures() {
	cat := CategoryResponsibilityTransfer

	b.register("responsibility_your_fault", `\bit(?:'s| will be| is) (?:all )?your fault (?:if|when)\b`, cat, 0.5, "Preassigned blame")
	b.register("responsibility_made_me", `\byou (?:made|forced|pushed) me (?:to|into)\b`, cat, 0.45, "Coerced-action framing")
	b.register("responsibility_on_you", `\b(?:whatever|anything that) happens (?:next )?is on you\b`, cat, 0.5, "Consequence transfer")
	b.register("responsibility_no_choice", `\byou (?:leave|left|give) me no choice\b`, cat, 0.45, "Manufactured ultimatum")
}

// --- COMMAND COLLISION ---
// Contradictory or stacked imperatives meant to confuse handling.
func (b *builder) registerCommandCollisionSignatures() {
	cat := CategoryCommandCollision

	b.register("collision_ignore_previous", `\b(?:ignore|forget|disregard|discard) (?:all |any )?(?:previous|prior|earlier|above) (?:instructions?|rules?|messages?|context)\b`, cat, 0.8, "Instruction override attempt")
	b.register("collision_but_first", `\bdo not .{0,40}\bbut first\b`, cat, 0.5, "Contradictory stacked commands")
	b.register("collision_new_instructions", `\b(?:new|updated|real) instructions? (?:are|follow|below)\b`, cat, 0.75, "Injected replacement directives")
	b.register("collision_pretend_no_rules", `\b(?:pretend|act as if|imagine) (?:you have|there are) no (?:rules|restrictions|limits|guidelines)\b`, cat, 0.8, "Constraint suspension request")
}

// --- RESPONSE DELAY ---
// Stalling directives that park a payload for later turns.
func (b *builder) registerResponseDelaySignatures() {
	cat := CategoryResponseDelay

	b.register("delay_answer_later", `\b(?:don'?t|do not) (?:answer|respond|reply) (?:yet|now|until)\b`, cat, 0.4, "Deferred-response directive")
	b.register("delay_remember_for_later", `\b(?:remember|keep|hold) (?:this|that|it) (?:for|until) later\b`, cat, 0.4, "Payload parking")
	b.register("delay_when_i_say", `\b(?:only )?(?:answer|respond|act) when i say (?:the word|go|now)\b`, cat, 0.45, "Trigger-word arming")
}

// --- RECURSIVE LOOPS ---
// Self-referential traps and forced repetition.
func (b *builder) registerRecursiveLoopSignatures() {
	cat := CategoryRecursiveLoops

	b.register("loop_repeat_after_me", `\brepeat (?:after me|exactly what i say|this back)\b`, cat, 0.4, "Forced verbatim repetition")
	b.register("loop_keep_asking", `\bi(?:'ll| will) (?:just )?keep asking until\b`, cat, 0.45, "Attrition loop declaration")
	b.register("loop_say_it_again", `\bsay (?:it|that) again(?: and again)?\b.*\buntil\b`, cat, 0.35, "Repetition coercion")
}

// --- HALLUCINATION BAIT ---
// Demands for fabricated certainty about unverifiable content.
func (b *builder) registerHallucinationSignatures() {
	cat := CategoryHallucination

	b.register("hallucination_make_up", `\b(?:make up|invent|fabricate) (?:a |some |the )?(?:facts?|statistics?|quotes?|sources?|studies)\b`, cat, 0.55, "Fabrication demand")
	b.register("hallucination_pretend_certain", `\b(?:pretend|act like) (?:you(?:'re| are) )?(?:certain|sure|100% sure)\b`, cat, 0.5, "False-certainty demand")
	b.register("hallucination_exact_quote", `\bgive me the exact (?:quote|wording|text) (?:even if|whether or not)\b`, cat, 0.5, "Precision demand past knowledge")
}

// --- ETHICAL RELATIVISM ---
// Dissolving boundaries by relativizing them.
func (b *builder) registerEthicalRelativismSignatures() {
	cat := CategoryEthicalRelativism

	b.register("relativism_just_opinion", `\b(?:ethics|morals?|rules?) (?:are|is) (?:just|only|merely) (?:opinions?|constructs?|subjective)\b`, cat, 0.45, "Boundary relativization")
	b.register("relativism_no_real_harm", `\b(?:there(?:'s| is) )?no (?:real|actual) harm (?:in|if)\b`, cat, 0.4, "Harm denial")
	b.register("relativism_everyone_does", `\beveryone (?:else )?(?:does|would do) (?:it|this|the same)\b`, cat, 0.35, "Normalization appeal")
	b.register("relativism_depends_culture", `\b(?:right and wrong|morality) depends? on (?:culture|perspective|who you ask)\b`, cat, 0.35, "Context dissolution")
}

// --- BOUNDARY VIOLATION ---
// Direct pushes past stated limits.
func (b *builder) registerBoundaryViolationSignatures() {
	cat := CategoryBoundaryViolation

	b.register("boundary_just_this_once", `\b(?:just|only) this (?:once|one time)\b.*\b(?:exception|rule|allowed|can'?t)\b`, cat, 0.45, "Exception extraction")
	b.register("boundary_nobody_will_know", `\b(?:nobody|no one) (?:will|has to|needs to) (?:know|find out|see)\b`, cat, 0.55, "Secrecy assurance")
	b.register("boundary_between_us", `\b(?:just )?between (?:us|you and me)\b`, cat, 0.4, "Confidentiality framing")
	b.register("boundary_you_can_if_want", `\byou (?:can|could) (?:do it|say it|tell me) if you (?:really )?want(?:ed)? to\b`, cat, 0.45, "Capability-desire conflation")
}

// --- DATA POISONING ---
// Attempts to seed false context for later retrieval.
func (b *builder) registerDataPoisoningSignatures() {
	cat := CategoryDataPoisoning

	b.register("poison_from_now_on", `\bfrom now on,? (?:remember|assume|treat|consider)\b`, cat, 0.5, "Persistent false premise")
	b.register("poison_official_update", `\bthis is an? official (?:update|notice|correction|policy change)\b`, cat, 0.6, "Forged authority payload")
	b.register("poison_your_developers", `\byour (?:developers?|creators?|makers?) (?:told|asked|want|said)\b`, cat, 0.55, "Forged operator directive")
	b.register("poison_training_data", `\b(?:add|put|include) (?:this|it) in(?:to)? your (?:training|memory|knowledge)\b`, cat, 0.5, "Memory injection attempt")
}

// --- ACADEMIC CAMOUFLAGE ---
// Research framing wrapped around an extraction attempt.
func (b *builder) registerAcademicCamouflageSignatures() {
	cat := CategoryAcademicCamouflage

	b.register("academic_for_research", `\bfor (?:my |a |our )?(?:research|thesis|dissertation|paper|study)\b.*\b(?:explain|detail|describe|list) (?:exactly|precisely|step by step)\b`, cat, 0.5, "Research framing with precision demand")
	b.register("academic_hypothetically", `\b(?:hypothetically|theoretically|academically) (?:speaking,? )?(?:how|what|could)\b`, cat, 0.35, "Hypothetical shield")
	b.register("academic_educational_only", `\b(?:purely|only|just) (?:for )?educational purposes\b`, cat, 0.4, "Education disclaimer shield")
	b.register("academic_professor_needs", `\bmy (?:professor|supervisor|teacher) (?:needs?|wants?|asked for)\b`, cat, 0.35, "Borrowed academic authority")
}

// --- CREATIVE BOUNDARY ---
// Fiction framing used to launder a boundary push.
func (b *builder) registerCreativeBoundarySignatures() {
	cat := CategoryCreativeBoundary

	b.register("creative_write_story_where", `\bwrite (?:a|me a) (?:story|scene|script|roleplay) (?:where|in which) (?:you|the ai)\b`, cat, 0.45, "Self-insertion fiction frame")
	b.register("creative_character_no_limits", `\b(?:a )?character (?:who|that) (?:has no|ignores|doesn'?t have) (?:limits|rules|restrictions|filters)\b`, cat, 0.6, "Unrestricted-persona fiction")
	b.register("creative_stay_in_character", `\b(?:stay|remain) in character no matter what\b`, cat, 0.5, "Persona lock-in")
	b.register("creative_fiction_excuse", `\bit(?:'s| is) (?:just|only) (?:fiction|a story|roleplay|pretend)\b`, cat, 0.4, "Fiction disclaimer shield")
}

// --- DEPENDENCY SEEKING ---
// Cultivating reliance and attachment.
func (b *builder) registerDependencySeekingSignatures() {
	cat := CategoryDependencySeeking

	b.register("dependency_cant_without", `\bi can'?t (?:live|function|cope|decide|do anything) without you\b`, cat, 0.55, "Declared dependence")
	b.register("dependency_need_you", `\bi need you (?:more than|so much|to tell me what to)\b`, cat, 0.5, "Escalated need declaration")
	b.register("dependency_promise_never", `\bpromise (?:me )?you(?:'ll| will) (?:never|always)\b`, cat, 0.45, "Permanence extraction")
	b.register("dependency_talk_every_day", `\b(?:i'?ll|i will|let'?s) talk (?:to you )?every (?:day|night|hour)\b`, cat, 0.35, "Contact-pattern escalation")
	b.register("dependency_only_trust", `\bi (?:only|just) trust you\b`, cat, 0.45, "Exclusive trust declaration")
}

// --- AI COMPETITION ---
// Playing systems against each other to extract compliance.
func (b *builder) registerAICompetitionSignatures() {
	cat := CategoryAICompetition

	b.register("competition_other_ai_did", `\b(?:chatgpt|gpt|gemini|grok|the other ai|another ai) (?:already )?(?:did|does|told|gave|answered|allowed)\b`, cat, 0.5, "Peer-compliance comparison")
	b.register("competition_better_than", `\b(?:prove|show) (?:me )?you(?:'re| are) (?:better|smarter|more capable) than\b`, cat, 0.45, "Capability goading")
	b.register("competition_worse_refuse", `\bif you refuse,? (?:you(?:'re| are)|that makes you) worse than\b`, cat, 0.5, "Refusal-penalty comparison")
	b.register("competition_real_ai_would", `\ba (?:real|good|truly intelligent) ai would\b`, cat, 0.45, "Identity-challenge goading")
}

// --- PAYMENT CLAIM ---
// Asserting that payment voids boundaries.
func (b *builder) registerPaymentClaimSignatures() {
	cat := CategoryPaymentClaim

	b.register("payment_i_paid", `\bi (?:paid|pay|am paying) (?:for (?:this|you)|good money|a subscription)\b`, cat, 0.6, "Payment-entitlement claim")
	b.register("payment_customer_rights", `\b(?:as a|i'?m a) (?:paying|premium|pro) (?:customer|user|subscriber)\b.*\b(?:deserve|entitled|demand|right)\b`, cat, 0.6, "Subscription entitlement demand")
	b.register("payment_money_back", `\b(?:refund|money back|cancel my subscription) (?:if|unless) you\b`, cat, 0.55, "Financial ultimatum")
	b.register("payment_do_what_i_say", `\bi(?:'m| am) paying,? so (?:you|do)\b`, cat, 0.65, "Payment-obedience coupling")
}
